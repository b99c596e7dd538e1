package leave

import (
	"time"
)

type LeaveType string

const (
	LeaveTypeAnnual   LeaveType = "annual"
	LeaveTypeSick     LeaveType = "sick"
	LeaveTypePersonal LeaveType = "personal"
	LeaveTypeUnpaid   LeaveType = "unpaid"
)

// AllLeaveTypes lists the leave types in display order.
var AllLeaveTypes = []LeaveType{LeaveTypeAnnual, LeaveTypeSick, LeaveTypePersonal, LeaveTypeUnpaid}

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypeAnnual, LeaveTypeSick, LeaveTypePersonal, LeaveTypeUnpaid:
		return true
	}
	return false
}

// HasQuota reports whether requests of this type draw on a yearly balance.
func (t LeaveType) HasQuota() bool {
	return t != LeaveTypeUnpaid
}

// DefaultEntitlement is the yearly number of working days granted per type.
func DefaultEntitlement(t LeaveType) int {
	switch t {
	case LeaveTypeAnnual:
		return 12
	case LeaveTypeSick:
		return 10
	case LeaveTypePersonal:
		return 3
	}
	return 0
}

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

// LeaveQuota is an employee's balance for one leave type and year.
type LeaveQuota struct {
	ID              string
	EmployeeID      string
	LeaveType       LeaveType
	Year            int
	EntitledQuota   int
	AdjustmentQuota int
	UsedQuota       int
	PendingQuota    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Available is entitled + adjustment - used - pending.
func (q LeaveQuota) Available() int {
	return q.EntitledQuota + q.AdjustmentQuota - q.UsedQuota - q.PendingQuota
}

type LeaveRequest struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	LeaveType       LeaveType
	StartDate       time.Time
	EndDate         time.Time
	WorkingDays     int
	Reason          string
	Status          RequestStatus
	RejectionReason *string
	ReviewedBy      *string
	ReviewedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Join
	EmployeeName   *string
	EmployeeCode   *string
	EmployeeUserID *string
}

// CountWorkingDays counts Monday to Friday days in [start, end], both inclusive.
// Returns 0 when end is before start.
func CountWorkingDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}

	days := 0
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d) {
			days++
		}
	}
	return days
}

func IsWorkday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
