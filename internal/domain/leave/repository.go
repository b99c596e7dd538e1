package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveRequest, error)
	UpdateStatus(ctx context.Context, req LeaveRequest) error
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
	ListByEmployee(ctx context.Context, employeeID string, filter MyLeaveRequestFilter) ([]LeaveRequest, error)
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	CountPending(ctx context.Context, companyID string) (int64, error)
}

type LeaveQuotaRepository interface {
	// GetOrCreate returns the quota row, inserting one with entitled days when missing.
	GetOrCreate(ctx context.Context, employeeID string, leaveType LeaveType, year int, entitled int) (LeaveQuota, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveQuota, error)
	AddPendingQuota(ctx context.Context, id string, days int) error
	RemovePendingQuota(ctx context.Context, id string, days int) error
	MovePendingToUsed(ctx context.Context, id string, days int) error
}
