package payroll

import (
	"context"
)

type PayrollService interface {
	// Settings
	GetSettings(ctx context.Context) (PayrollSettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdatePayrollSettingsRequest) (PayrollSettingsResponse, error)

	// Components
	CreateComponent(ctx context.Context, req CreatePayrollComponentRequest) (PayrollComponentResponse, error)
	ListComponents(ctx context.Context, activeOnly bool) ([]PayrollComponentResponse, error)
	UpdateComponent(ctx context.Context, req UpdatePayrollComponentRequest) (PayrollComponentResponse, error)
	DeleteComponent(ctx context.Context, id string) error
	AssignComponent(ctx context.Context, req AssignComponentRequest) (EmployeeComponentResponse, error)
	ListEmployeeComponents(ctx context.Context, employeeID string) ([]EmployeeComponentResponse, error)
	RemoveEmployeeComponent(ctx context.Context, id string) error

	// Records
	Generate(ctx context.Context, req GeneratePayrollRequest) (GeneratePayrollResponse, error)
	List(ctx context.Context, filter PayrollFilter) (ListPayrollRecordResponse, error)
	Get(ctx context.Context, id string) (PayrollRecordResponse, error)
	Approve(ctx context.Context, id string) (PayrollRecordResponse, error)
	Reject(ctx context.Context, id string, req RejectPayrollRequest) (PayrollRecordResponse, error)
	MarkPaid(ctx context.Context, id string) (PayrollRecordResponse, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, month, year int) (PayrollSummaryResponse, error)
	Export(ctx context.Context, filter RecordFilter) (ExportFile, error)

	// Payslips
	ListMyPayslips(ctx context.Context, year *int) ([]PayrollRecordResponse, error)
	GetMyPayslip(ctx context.Context, id string) (PayrollRecordResponse, error)
	DownloadMyPayslip(ctx context.Context, id string) (ExportFile, error)
}
