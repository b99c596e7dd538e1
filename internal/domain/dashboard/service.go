package dashboard

import "context"

// DashboardService builds the role specific dashboards
type DashboardService interface {
	GetAdminDashboard(ctx context.Context) (*AdminDashboardResponse, error)
	GetClientDashboard(ctx context.Context) (*ClientDashboardResponse, error)
	GetEmployeeDashboard(ctx context.Context) (*EmployeeDashboardResponse, error)
	GetContractorDashboard(ctx context.Context) (*ContractorDashboardResponse, error)
}
