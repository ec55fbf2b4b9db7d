package model

import "time"

// LeaveType is a cached leave-type master record from Ragic, referenced by
// leave request forms.
type LeaveType struct {
	RagicID             int64
	Code                string
	Name                string
	DeductionMultiplier float64
	LastSyncedAt        time.Time
}
