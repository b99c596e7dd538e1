package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const attendanceColumns = `
	a.id, a.company_id, a.employee_id, a.date, a.check_in, a.check_out,
	a.check_in_latitude, a.check_in_longitude, a.check_out_latitude, a.check_out_longitude,
	a.status, a.late_minutes, a.worked_minutes, a.notes, a.created_at, a.updated_at,
	u.name, e.employee_code`

const attendanceFrom = `
	FROM attendances a
	JOIN employees e ON e.id = a.employee_id
	JOIN users u ON u.id = e.user_id`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var a attendance.Attendance
	err := row.Scan(
		&a.ID,
		&a.CompanyID,
		&a.EmployeeID,
		&a.Date,
		&a.CheckIn,
		&a.CheckOut,
		&a.CheckInLatitude,
		&a.CheckInLongitude,
		&a.CheckOutLatitude,
		&a.CheckOutLongitude,
		&a.Status,
		&a.LateMinutes,
		&a.WorkedMinutes,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.EmployeeName,
		&a.EmployeeCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, err
	}
	return a, nil
}

func collectAttendances(rows pgx.Rows) ([]attendance.Attendance, error) {
	defer rows.Close()

	records := make([]attendance.Attendance, 0)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// Create inserts one row per employee and day. A second row for the same
// day reports ErrAlreadyCheckedIn.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances (
			company_id, employee_id, date, check_in, check_out,
			check_in_latitude, check_in_longitude, check_out_latitude, check_out_longitude,
			status, late_minutes, worked_minutes, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		a.CompanyID,
		a.EmployeeID,
		a.Date,
		a.CheckIn,
		a.CheckOut,
		a.CheckInLatitude,
		a.CheckInLongitude,
		a.CheckOutLatitude,
		a.CheckOutLongitude,
		a.Status,
		a.LateMinutes,
		a.WorkedMinutes,
		a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "attendances_employee_date_key") {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Attendance{}, err
	}
	return a, nil
}

func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + attendanceColumns + attendanceFrom + ` WHERE a.id = $1 AND a.company_id = $2`
	return scanAttendance(q.QueryRow(ctx, query, id, companyID))
}

func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + attendanceColumns + attendanceFrom + ` WHERE a.employee_id = $1 AND a.date = $2`
	return scanAttendance(q.QueryRow(ctx, query, employeeID, date))
}

func (r *attendanceRepositoryImpl) Update(ctx context.Context, a attendance.Attendance) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE attendances
		SET check_in = $1,
		    check_out = $2,
		    check_in_latitude = $3,
		    check_in_longitude = $4,
		    check_out_latitude = $5,
		    check_out_longitude = $6,
		    status = $7,
		    late_minutes = $8,
		    worked_minutes = $9,
		    notes = $10,
		    updated_at = NOW()
		WHERE id = $11 AND company_id = $12
	`,
		a.CheckIn,
		a.CheckOut,
		a.CheckInLatitude,
		a.CheckInLongitude,
		a.CheckOutLatitude,
		a.CheckOutLongitude,
		a.Status,
		a.LateMinutes,
		a.WorkedMinutes,
		a.Notes,
		a.ID,
		a.CompanyID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

func (r *attendanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.employee_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date DESC`
	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	return collectAttendances(rows)
}

func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere()
	w.add("a.company_id = ?", filter.CompanyID)
	if filter.EmployeeID != nil {
		w.add("a.employee_id = ?", *filter.EmployeeID)
	}
	if filter.Status != nil {
		w.add("a.status = ?", *filter.Status)
	}
	if filter.From != nil {
		w.add("a.date >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("a.date <= ?", *filter.To)
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendances a `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attendances: %w", err)
	}

	query := `SELECT ` + attendanceColumns + attendanceFrom + ` ` + w.sql() +
		` ORDER BY a.date DESC, e.employee_code` + w.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	records, err := collectAttendances(rows)
	return records, total, err
}

func (r *attendanceRepositoryImpl) SummaryForPeriod(ctx context.Context, employeeID string, from, to time.Time) (attendance.Summary, error) {
	q := GetQuerier(ctx, r.db)

	var s attendance.Summary
	err := q.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'present'),
			COUNT(*) FILTER (WHERE status = 'late'),
			COUNT(*) FILTER (WHERE status = 'half-day'),
			COUNT(*) FILTER (WHERE status = 'absent'),
			COALESCE(SUM(late_minutes), 0)
		FROM attendances
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
	`, employeeID, from, to).Scan(&s.Present, &s.Late, &s.HalfDay, &s.Absent, &s.LateMinutes)
	return s, err
}

func (r *attendanceRepositoryImpl) CountByStatusOnDate(ctx context.Context, companyID string, date time.Time) (map[attendance.Status]int64, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT status, COUNT(*)
		FROM attendances
		WHERE company_id = $1 AND date = $2
		GROUP BY status
	`, companyID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[attendance.Status]int64, 4)
	for rows.Next() {
		var status attendance.Status
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *attendanceRepositoryImpl) EmployeesWithoutRecord(ctx context.Context, companyID string, date time.Time) ([]attendance.Absentee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT e.id, e.user_id
		FROM employees e
		JOIN users u ON u.id = e.user_id
		WHERE e.company_id = $1
		  AND e.employment_status = 'active'
		  AND e.hire_date <= $2
		  AND u.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM attendances a WHERE a.employee_id = e.id AND a.date = $2
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM leave_requests lr
			WHERE lr.employee_id = e.id
			  AND lr.status = 'approved'
			  AND $2 BETWEEN lr.start_date AND lr.end_date
		  )
		ORDER BY e.employee_code
	`, companyID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	absentees := make([]attendance.Absentee, 0)
	for rows.Next() {
		var a attendance.Absentee
		if err := rows.Scan(&a.EmployeeID, &a.UserID); err != nil {
			return nil, err
		}
		absentees = append(absentees, a)
	}
	return absentees, rows.Err()
}
