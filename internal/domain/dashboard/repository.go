package dashboard

import (
	"context"
	"time"
)

// EmployeeSummaryStats combines all employee summary counts in single query
type EmployeeSummaryStats struct {
	Total    int64
	New      int64 // hired within 30 days
	Active   int64
	Inactive int64
}

// EmployeeTypeStats combines all employment type counts
type EmployeeTypeStats struct {
	Permanent  int64
	Probation  int64
	Contract   int64
	Internship int64
}

// PlatformStats is the admin-wide overview.
type PlatformStats struct {
	UsersByRole  map[string]int64
	Companies    int64
	NewUsers     int64 // created since the given time
	DeletedUsers int64
}

// DashboardRepository defines the interface for dashboard data access
type DashboardRepository interface {
	// GetEmployeeSummary returns total, new, active and inactive counts in single query
	GetEmployeeSummary(ctx context.Context, companyID string, since time.Time) (*EmployeeSummaryStats, error)

	// GetEmployeeTypeStats returns employment type distribution of active employees
	GetEmployeeTypeStats(ctx context.Context, companyID string) (*EmployeeTypeStats, error)

	// GetPlatformStats returns users by role and organization counts
	GetPlatformStats(ctx context.Context, since time.Time) (*PlatformStats, error)
}
