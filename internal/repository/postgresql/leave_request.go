package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestColumns = `
	lr.id, lr.company_id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
	lr.working_days, lr.reason, lr.status, lr.rejection_reason, lr.reviewed_by, lr.reviewed_at,
	lr.created_at, lr.updated_at,
	u.name, e.employee_code, e.user_id`

const leaveRequestFrom = `
	FROM leave_requests lr
	JOIN employees e ON e.id = lr.employee_id
	JOIN users u ON u.id = e.user_id`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var req leave.LeaveRequest
	err := row.Scan(
		&req.ID,
		&req.CompanyID,
		&req.EmployeeID,
		&req.LeaveType,
		&req.StartDate,
		&req.EndDate,
		&req.WorkingDays,
		&req.Reason,
		&req.Status,
		&req.RejectionReason,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.EmployeeName,
		&req.EmployeeCode,
		&req.EmployeeUserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, err
	}
	return req, nil
}

func collectLeaveRequests(rows pgx.Rows) ([]leave.LeaveRequest, error) {
	defer rows.Close()

	requests := make([]leave.LeaveRequest, 0)
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO leave_requests (
			company_id, employee_id, leave_type, start_date, end_date, working_days, reason, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`,
		req.CompanyID,
		req.EmployeeID,
		req.LeaveType,
		req.StartDate,
		req.EndDate,
		req.WorkingDays,
		req.Reason,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return req, nil
}

// GetByID locks the row so status changes inside a transaction serialize.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveRequestColumns + leaveRequestFrom +
		` WHERE lr.id = $1 AND lr.company_id = $2 FOR UPDATE OF lr`
	return scanLeaveRequest(q.QueryRow(ctx, query, id, companyID))
}

func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, req leave.LeaveRequest) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE leave_requests
		SET status = $1,
		    rejection_reason = $2,
		    reviewed_by = $3,
		    reviewed_at = $4,
		    updated_at = NOW()
		WHERE id = $5 AND company_id = $6
	`, req.Status, req.RejectionReason, req.ReviewedBy, req.ReviewedAt, req.ID, req.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

func (r *leaveRequestRepositoryImpl) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere()
	w.add("lr.company_id = ?", filter.CompanyID)
	if filter.EmployeeID != nil {
		w.add("lr.employee_id = ?", *filter.EmployeeID)
	}
	if filter.Status != nil {
		w.add("lr.status = ?", *filter.Status)
	}
	if filter.LeaveType != nil {
		w.add("lr.leave_type = ?", *filter.LeaveType)
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM leave_requests lr `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	query := `SELECT ` + leaveRequestColumns + leaveRequestFrom + ` ` + w.sql() +
		` ORDER BY lr.created_at DESC` + w.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	requests, err := collectLeaveRequests(rows)
	return requests, total, err
}

func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter leave.MyLeaveRequestFilter) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere()
	w.add("lr.employee_id = ?", employeeID)
	if filter.Status != nil {
		w.add("lr.status = ?", *filter.Status)
	}
	if filter.Year != nil {
		w.add("EXTRACT(YEAR FROM lr.start_date) = ?", *filter.Year)
	}

	query := `SELECT ` + leaveRequestColumns + leaveRequestFrom + ` ` + w.sql() + ` ORDER BY lr.start_date DESC`
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectLeaveRequests(rows)
}

// HasOverlap reports whether a pending or approved request of the employee
// shares at least one day with [start, end].
func (r *leaveRequestRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM leave_requests
			WHERE employee_id = $1
			  AND status IN ('pending', 'approved')
			  AND start_date <= $3
			  AND end_date >= $2
		)
	`, employeeID, start, end).Scan(&exists)
	return exists, err
}

func (r *leaveRequestRepositoryImpl) CountPending(ctx context.Context, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var n int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE company_id = $1 AND status = 'pending'`,
		companyID,
	).Scan(&n)
	return n, err
}
