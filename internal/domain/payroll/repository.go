package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Settings
	GetSettings(ctx context.Context, companyID string) (PayrollSettings, error)
	UpsertSettings(ctx context.Context, settings PayrollSettings) (PayrollSettings, error)

	// Components
	CreateComponent(ctx context.Context, component PayrollComponent) (PayrollComponent, error)
	GetComponentByID(ctx context.Context, id string, companyID string) (PayrollComponent, error)
	GetComponentsByCompanyID(ctx context.Context, companyID string, activeOnly bool) ([]PayrollComponent, error)
	UpdateComponent(ctx context.Context, companyID string, req UpdatePayrollComponentRequest) error
	DeleteComponent(ctx context.Context, id string, companyID string) error

	// Employee Components
	AssignComponentToEmployee(ctx context.Context, assignment EmployeePayrollComponent) (EmployeePayrollComponent, error)
	GetEmployeeComponents(ctx context.Context, employeeID string, companyID string) ([]EmployeePayrollComponent, error)
	RemoveEmployeeComponent(ctx context.Context, id string, companyID string) error
	// ActiveComponentsForEmployees returns components in effect on asOf, keyed by employee id.
	ActiveComponentsForEmployees(ctx context.Context, companyID string, employeeIDs []string, asOf time.Time) (map[string][]EmployeePayrollComponent, error)

	// Payroll Records
	CreatePayrollRecord(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	GetPayrollRecordByID(ctx context.Context, id string, companyID string) (PayrollRecord, error)
	ExistsForPeriod(ctx context.Context, employeeID string, month, year int) (bool, error)
	ListPayrollRecords(ctx context.Context, companyID string, filter PayrollFilter) ([]PayrollRecord, int64, error)
	ListAllPayrollRecords(ctx context.Context, companyID string, year *int) ([]PayrollRecord, error)
	// UpdatePayrollStatus writes record only while the stored status is still
	// from, returning ErrInvalidStatusTransition otherwise.
	UpdatePayrollStatus(ctx context.Context, record PayrollRecord, from PayrollStatus) error
	DeletePayrollRecord(ctx context.Context, id string, companyID string) error

	// Employee-facing
	ListEmployeePayslips(ctx context.Context, employeeID string, year *int, statuses []PayrollStatus) ([]PayrollRecord, error)
	GetEmployeePayslip(ctx context.Context, employeeID string, id string) (PayrollRecord, error)

	// Aggregations
	GetPayrollSummary(ctx context.Context, companyID string, month, year int) (PayrollSummaryResponse, error)
}
