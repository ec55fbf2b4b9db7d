package model

import "time"

// maxErrorDetails caps the error strings carried by a SyncResult so one bad
// batch cannot balloon a status response or log line.
const maxErrorDetails = 10

// SyncResult summarizes one sync run. It is created fresh per run and never
// persisted beyond the run's response and log line.
type SyncResult struct {
	Synced   int
	Skipped  int
	Failed   int
	Deleted  int
	Duration time.Duration
	Errors   []string
}

// RecordError appends a per-record error detail, keeping at most
// maxErrorDetails entries. Failed counts every error regardless of the cap.
func (r *SyncResult) RecordError(detail string) {
	r.Failed++
	if len(r.Errors) < maxErrorDetails {
		r.Errors = append(r.Errors, detail)
	}
}

// OK reports whether the run completed without any failed records.
func (r *SyncResult) OK() bool {
	return r.Failed == 0
}

// SyncState is the operational state of a sync service.
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStateSyncing SyncState = "syncing"
	SyncStateError   SyncState = "error"
)

// SyncStatus is the operational state of one registered sync service, exposed
// on the status endpoint.
type SyncStatus struct {
	Key        string
	Name       string
	Module     string
	State      SyncState
	LastResult *SyncResult
	LastSyncAt time.Time
}
