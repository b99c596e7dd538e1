package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, companyID, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	NextEmployeeCode(ctx context.Context, companyID string) (string, error)
	Update(ctx context.Context, companyID, id string, req UpdateEmployeeRequest) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	CountActive(ctx context.Context, companyID string) (int64, error)
}
