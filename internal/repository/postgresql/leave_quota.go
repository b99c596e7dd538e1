package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type leaveQuotaRepositoryImpl struct {
	db *database.DB
}

func NewLeaveQuotaRepository(db *database.DB) leave.LeaveQuotaRepository {
	return &leaveQuotaRepositoryImpl{db: db}
}

const quotaColumns = `id, employee_id, leave_type, year, entitled_quota, adjustment_quota,
	used_quota, pending_quota, created_at, updated_at`

func scanQuota(row pgx.Row) (leave.LeaveQuota, error) {
	var quota leave.LeaveQuota
	err := row.Scan(
		&quota.ID,
		&quota.EmployeeID,
		&quota.LeaveType,
		&quota.Year,
		&quota.EntitledQuota,
		&quota.AdjustmentQuota,
		&quota.UsedQuota,
		&quota.PendingQuota,
		&quota.CreatedAt,
		&quota.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveQuota{}, leave.ErrLeaveQuotaNotFound
		}
		return leave.LeaveQuota{}, err
	}
	return quota, nil
}

// GetOrCreate upserts the row so concurrent first requests for a year agree
// on one balance. The no-op update makes RETURNING yield the existing row.
func (r *leaveQuotaRepositoryImpl) GetOrCreate(ctx context.Context, employeeID string, leaveType leave.LeaveType, year int, entitled int) (leave.LeaveQuota, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_quotas (employee_id, leave_type, year, entitled_quota)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT leave_quotas_employee_type_year_key
		DO UPDATE SET employee_id = EXCLUDED.employee_id
		RETURNING ` + quotaColumns
	return scanQuota(q.QueryRow(ctx, query, employeeID, leaveType, year, entitled))
}

func (r *leaveQuotaRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveQuota, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+quotaColumns+`
		FROM leave_quotas
		WHERE employee_id = $1 AND year = $2
		ORDER BY leave_type`, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotas := make([]leave.LeaveQuota, 0)
	for rows.Next() {
		quota, err := scanQuota(rows)
		if err != nil {
			return nil, err
		}
		quotas = append(quotas, quota)
	}
	return quotas, rows.Err()
}

// AddPendingQuota reserves days, failing with ErrInsufficientQuota when the
// balance would go negative.
func (r *leaveQuotaRepositoryImpl) AddPendingQuota(ctx context.Context, id string, days int) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE leave_quotas
		SET pending_quota = pending_quota + $1,
		    updated_at = NOW()
		WHERE id = $2
		  AND entitled_quota + adjustment_quota - used_quota - pending_quota - $1 >= 0
	`, days, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrInsufficientQuota
	}
	return nil
}

func (r *leaveQuotaRepositoryImpl) RemovePendingQuota(ctx context.Context, id string, days int) error {
	return r.exec(ctx, `
		UPDATE leave_quotas
		SET pending_quota = GREATEST(pending_quota - $1, 0),
		    updated_at = NOW()
		WHERE id = $2
	`, days, id)
}

func (r *leaveQuotaRepositoryImpl) MovePendingToUsed(ctx context.Context, id string, days int) error {
	return r.exec(ctx, `
		UPDATE leave_quotas
		SET pending_quota = GREATEST(pending_quota - $1, 0),
		    used_quota = used_quota + $1,
		    updated_at = NOW()
		WHERE id = $2
	`, days, id)
}

func (r *leaveQuotaRepositoryImpl) exec(ctx context.Context, query string, args ...any) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveQuotaNotFound
	}
	return nil
}
