package ragic

import (
	"strconv"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
	"github.com/ericfisherdev/ragicsync/internal/registry"
)

// LeaveRequestFormKey is the registry form key of the leave request sheet.
const LeaveRequestFormKey = "leave_request"

// Logical field names of the leave request form, as they appear in the
// registry field mapping.
const (
	fieldEmployeeID  = "EMPLOYEE_ID"
	fieldLeaveType   = "LEAVE_TYPE"
	fieldStartDate   = "START_DATE"
	fieldEndDate     = "END_DATE"
	fieldHours       = "HOURS"
	fieldReason      = "REASON"
	fieldStatus      = "STATUS"
	fieldSubmittedAt = "SUBMITTED_AT"
)

const (
	dateFormat     = "2006/01/02"
	dateTimeFormat = "2006/01/02 15:04:05"
)

// LeaveRequestCodec maps leave requests to the leave request sheet.
type LeaveRequestCodec struct{}

func (LeaveRequestCodec) Decode(rec model.RemoteRecord) (model.LeaveRequest, error) {
	startDate, err := rec.Date(fieldStartDate)
	if err != nil {
		return model.LeaveRequest{}, err
	}
	endDate, err := rec.Date(fieldEndDate)
	if err != nil {
		return model.LeaveRequest{}, err
	}
	hours, err := rec.Float(fieldHours)
	if err != nil {
		return model.LeaveRequest{}, err
	}
	submittedAt, err := rec.DateTime(fieldSubmittedAt)
	if err != nil {
		return model.LeaveRequest{}, err
	}

	return model.LeaveRequest{
		RagicID:     rec.RagicID(),
		EmployeeID:  rec.Text(fieldEmployeeID),
		LeaveType:   rec.Text(fieldLeaveType),
		StartDate:   startDate,
		EndDate:     endDate,
		Hours:       hours,
		Reason:      rec.Text(fieldReason),
		Status:      rec.Text(fieldStatus),
		SubmittedAt: submittedAt,
	}, nil
}

func (LeaveRequestCodec) Encode(req model.LeaveRequest) map[string]string {
	fields := map[string]string{
		fieldEmployeeID: req.EmployeeID,
		fieldLeaveType:  req.LeaveType,
		fieldHours:      strconv.FormatFloat(req.Hours, 'f', -1, 64),
		fieldReason:     req.Reason,
		fieldStatus:     req.Status,
	}
	if !req.StartDate.IsZero() {
		fields[fieldStartDate] = req.StartDate.Format(dateFormat)
	}
	if !req.EndDate.IsZero() {
		fields[fieldEndDate] = req.EndDate.Format(dateFormat)
	}
	if !req.SubmittedAt.IsZero() {
		fields[fieldSubmittedAt] = req.SubmittedAt.Format(dateTimeFormat)
	}
	return fields
}

func (LeaveRequestCodec) RagicID(req model.LeaveRequest) int64 {
	return req.RagicID
}

// NewLeaveRequestRepository wires the leave request codec to its sheet.
func NewLeaveRequestRepository(client driven.RagicClient, reg *registry.Registry) *Repository[model.LeaveRequest] {
	return NewRepository[model.LeaveRequest](client, reg, LeaveRequestFormKey, LeaveRequestCodec{})
}
