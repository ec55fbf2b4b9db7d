package model

import "time"

// Account is a cached copy of an employee account record from Ragic.
// RagicID is the remote record identifier and the local primary key; no
// independent local identity exists for cached data.
type Account struct {
	RagicID     int64
	EmployeeID  string
	Name        string
	DisplayName string
	Email       string
	// EmailHash is the blind index of Email, used for exact-match lookups
	// without scanning plaintext.
	EmailHash       string
	Department      string
	Status          string
	EffectiveDate   time.Time
	ResignationDate time.Time
	LastSyncedAt    time.Time
}
