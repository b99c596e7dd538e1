package employee

import (
	"context"
)

// EmployeeService defines business logic for employee operations
type EmployeeService interface {
	// ListEmployees lists employees of the caller's organization
	ListEmployees(ctx context.Context, filter EmployeeFilter) (ListEmployeeResponse, error)

	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)

	// UpdateEmployee changes employment data (client only)
	UpdateEmployee(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)

	// GetMyProfile returns the caller's own employee record
	GetMyProfile(ctx context.Context) (EmployeeResponse, error)
}
