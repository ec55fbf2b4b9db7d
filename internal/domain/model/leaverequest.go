package model

import "time"

// LeaveRequest is a transactional record written directly to Ragic; there is
// no local cache table for it. RagicID is zero until the record is created
// remotely.
type LeaveRequest struct {
	RagicID     int64
	EmployeeID  string
	LeaveType   string
	StartDate   time.Time
	EndDate     time.Time
	Hours       float64
	Reason      string
	Status      string
	SubmittedAt time.Time
}

// IsNew reports whether the request has not yet been created in Ragic.
func (r LeaveRequest) IsNew() bool {
	return r.RagicID == 0
}
