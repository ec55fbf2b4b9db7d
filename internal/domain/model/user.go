package model

import "time"

// User is a cached identity record from Ragic's user sheet. It is the
// "identity cache" other sync domains consult, e.g. the account sync falls
// back to a user's verified email when the account record leaves it blank.
type User struct {
	RagicID      int64
	Email        string
	EmailHash    string
	LineUserID   string
	LineUserHash string
	DisplayName  string
	IsVerified   bool
	LastSyncedAt time.Time
}
