package leave

import (
	"context"
)

type LeaveService interface {
	// Employee
	CreateLeaveRequest(ctx context.Context, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	ListMyLeaveRequests(ctx context.Context, filter MyLeaveRequestFilter) ([]LeaveRequestResponse, error)
	GetMyBalance(ctx context.Context, year int) ([]LeaveQuotaResponse, error)
	CancelLeaveRequest(ctx context.Context, requestID string) (LeaveRequestResponse, error)

	// Client
	ListLeaveRequest(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	ApproveLeaveRequest(ctx context.Context, requestID string) (LeaveRequestResponse, error)
	RejectLeaveRequest(ctx context.Context, requestID string, req RejectRequestRequest) (LeaveRequestResponse, error)
}
