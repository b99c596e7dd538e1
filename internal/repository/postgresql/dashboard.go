package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/dashboard"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type dashboardRepositoryImpl struct {
	db *database.DB
}

func NewDashboardRepository(db *database.DB) dashboard.DashboardRepository {
	return &dashboardRepositoryImpl{db: db}
}

// GetEmployeeSummary returns total, new (hired since), active and inactive in one query.
// Employees whose account was deleted are left out.
func (r *dashboardRepositoryImpl) GetEmployeeSummary(ctx context.Context, companyID string, since time.Time) (*dashboard.EmployeeSummaryStats, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE e.hire_date >= $2),
			COUNT(*) FILTER (WHERE e.employment_status = 'active'),
			COUNT(*) FILTER (WHERE e.employment_status = 'inactive')
		FROM employees e
		JOIN users u ON u.id = e.user_id
		WHERE e.company_id = $1 AND u.deleted_at IS NULL
	`

	var stats dashboard.EmployeeSummaryStats
	err := q.QueryRow(ctx, query, companyID, since).Scan(&stats.Total, &stats.New, &stats.Active, &stats.Inactive)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee summary: %w", err)
	}
	return &stats, nil
}

func (r *dashboardRepositoryImpl) GetEmployeeTypeStats(ctx context.Context, companyID string) (*dashboard.EmployeeTypeStats, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE e.employment_type = 'permanent'),
			COUNT(*) FILTER (WHERE e.employment_type = 'probation'),
			COUNT(*) FILTER (WHERE e.employment_type = 'contract'),
			COUNT(*) FILTER (WHERE e.employment_type = 'internship')
		FROM employees e
		JOIN users u ON u.id = e.user_id
		WHERE e.company_id = $1 AND e.employment_status = 'active' AND u.deleted_at IS NULL
	`

	var stats dashboard.EmployeeTypeStats
	err := q.QueryRow(ctx, query, companyID).Scan(&stats.Permanent, &stats.Probation, &stats.Contract, &stats.Internship)
	if err != nil {
		return nil, fmt.Errorf("failed to get employment type stats: %w", err)
	}
	return &stats, nil
}

func (r *dashboardRepositoryImpl) GetPlatformStats(ctx context.Context, since time.Time) (*dashboard.PlatformStats, error) {
	q := GetQuerier(ctx, r.db)

	stats := dashboard.PlatformStats{UsersByRole: make(map[string]int64, 4)}

	rows, err := q.Query(ctx, `SELECT role, COUNT(*) FROM users WHERE deleted_at IS NULL GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		stats.UsersByRole[role] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL AND created_at >= $1),
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NOT NULL)
	`, since).Scan(&stats.Companies, &stats.NewUsers, &stats.DeletedUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	return &stats, nil
}
