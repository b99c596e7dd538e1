package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== SETTINGS ==========

const settingsColumns = `id, company_id, late_deduction_enabled, late_deduction_per_minute,
	absence_deduction_enabled, working_days_per_month, created_at, updated_at`

func scanSettings(row pgx.Row) (payroll.PayrollSettings, error) {
	var s payroll.PayrollSettings
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.LateDeductionEnabled, &s.LateDeductionPerMinute,
		&s.AbsenceDeductionEnabled, &s.WorkingDaysPerMonth, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollSettings{}, payroll.ErrPayrollSettingsNotFound
		}
		return payroll.PayrollSettings{}, err
	}
	return s, nil
}

func (r *payrollRepository) GetSettings(ctx context.Context, companyID string) (payroll.PayrollSettings, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + settingsColumns + ` FROM payroll_settings WHERE company_id = $1`
	return scanSettings(q.QueryRow(ctx, query, companyID))
}

func (r *payrollRepository) UpsertSettings(ctx context.Context, settings payroll.PayrollSettings) (payroll.PayrollSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_settings (
			company_id, late_deduction_enabled, late_deduction_per_minute,
			absence_deduction_enabled, working_days_per_month
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE SET
			late_deduction_enabled = EXCLUDED.late_deduction_enabled,
			late_deduction_per_minute = EXCLUDED.late_deduction_per_minute,
			absence_deduction_enabled = EXCLUDED.absence_deduction_enabled,
			working_days_per_month = EXCLUDED.working_days_per_month,
			updated_at = NOW()
		RETURNING ` + settingsColumns

	s, err := scanSettings(q.QueryRow(ctx, query,
		settings.CompanyID,
		settings.LateDeductionEnabled,
		settings.LateDeductionPerMinute,
		settings.AbsenceDeductionEnabled,
		settings.WorkingDaysPerMonth,
	))
	if err != nil {
		return payroll.PayrollSettings{}, fmt.Errorf("failed to upsert payroll settings: %w", err)
	}
	return s, nil
}

// ========== COMPONENTS ==========

const componentColumns = `id, company_id, name, type, description, is_active, created_at, updated_at`

func scanComponent(row pgx.Row) (payroll.PayrollComponent, error) {
	var c payroll.PayrollComponent
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Type, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollComponent{}, payroll.ErrPayrollComponentNotFound
		}
		return payroll.PayrollComponent{}, err
	}
	return c, nil
}

func (r *payrollRepository) CreateComponent(ctx context.Context, component payroll.PayrollComponent) (payroll.PayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_components (company_id, name, type, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + componentColumns

	c, err := scanComponent(q.QueryRow(ctx, query,
		component.CompanyID, component.Name, component.Type, component.Description, component.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err, "payroll_components_company_name_key") {
			return payroll.PayrollComponent{}, payroll.ErrPayrollComponentNameExists
		}
		return payroll.PayrollComponent{}, fmt.Errorf("failed to create payroll component: %w", err)
	}
	return c, nil
}

func (r *payrollRepository) GetComponentByID(ctx context.Context, id string, companyID string) (payroll.PayrollComponent, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + componentColumns + `
		FROM payroll_components
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`
	return scanComponent(q.QueryRow(ctx, query, id, companyID))
}

func (r *payrollRepository) GetComponentsByCompanyID(ctx context.Context, companyID string, activeOnly bool) ([]payroll.PayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + `
		FROM payroll_components
		WHERE company_id = $1 AND deleted_at IS NULL`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY type, name`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll components: %w", err)
	}
	defer rows.Close()

	components := make([]payroll.PayrollComponent, 0)
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func (r *payrollRepository) UpdateComponent(ctx context.Context, companyID string, req payroll.UpdatePayrollComponentRequest) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_components
		SET name = COALESCE($1, name),
		    description = COALESCE($2, description),
		    is_active = COALESCE($3, is_active),
		    updated_at = NOW()
		WHERE id = $4 AND company_id = $5 AND deleted_at IS NULL
	`, req.Name, req.Description, req.IsActive, req.ID, companyID)
	if err != nil {
		if isUniqueViolation(err, "payroll_components_company_name_key") {
			return payroll.ErrPayrollComponentNameExists
		}
		return fmt.Errorf("failed to update payroll component: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollComponentNotFound
	}
	return nil
}

// DeleteComponent soft deletes the component. Generated payslips keep their
// own copy of the line names, so history is unaffected.
func (r *payrollRepository) DeleteComponent(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_components
		SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll component: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollComponentNotFound
	}
	return nil
}

// ========== EMPLOYEE COMPONENTS ==========

const employeeComponentColumns = `
	epc.id, epc.employee_id, epc.payroll_component_id, epc.amount,
	epc.effective_date, epc.end_date, epc.created_at, epc.updated_at,
	pc.name, pc.type`

const employeeComponentFrom = `
	FROM employee_payroll_components epc
	JOIN payroll_components pc ON pc.id = epc.payroll_component_id`

func scanEmployeeComponent(row pgx.Row) (payroll.EmployeePayrollComponent, error) {
	var c payroll.EmployeePayrollComponent
	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.PayrollComponentID, &c.Amount,
		&c.EffectiveDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt,
		&c.ComponentName, &c.ComponentType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.EmployeePayrollComponent{}, payroll.ErrEmployeeComponentNotFound
		}
		return payroll.EmployeePayrollComponent{}, err
	}
	return c, nil
}

func (r *payrollRepository) AssignComponentToEmployee(ctx context.Context, assignment payroll.EmployeePayrollComponent) (payroll.EmployeePayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO employee_payroll_components (employee_id, payroll_component_id, amount, effective_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`,
		assignment.EmployeeID,
		assignment.PayrollComponentID,
		assignment.Amount,
		assignment.EffectiveDate,
		assignment.EndDate,
	).Scan(&assignment.ID, &assignment.CreatedAt, &assignment.UpdatedAt)
	if err != nil {
		return payroll.EmployeePayrollComponent{}, fmt.Errorf("failed to assign payroll component: %w", err)
	}
	return assignment, nil
}

func (r *payrollRepository) GetEmployeeComponents(ctx context.Context, employeeID string, companyID string) ([]payroll.EmployeePayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeComponentColumns + employeeComponentFrom + `
		WHERE epc.employee_id = $1 AND pc.company_id = $2 AND pc.deleted_at IS NULL
		ORDER BY epc.effective_date DESC, pc.name`
	rows, err := q.Query(ctx, query, employeeID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee components: %w", err)
	}
	defer rows.Close()

	assignments := make([]payroll.EmployeePayrollComponent, 0)
	for rows.Next() {
		c, err := scanEmployeeComponent(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, c)
	}
	return assignments, rows.Err()
}

func (r *payrollRepository) RemoveEmployeeComponent(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM employee_payroll_components epc
		USING payroll_components pc
		WHERE epc.id = $1 AND pc.id = epc.payroll_component_id AND pc.company_id = $2
	`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to remove employee component: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrEmployeeComponentNotFound
	}
	return nil
}

func (r *payrollRepository) ActiveComponentsForEmployees(ctx context.Context, companyID string, employeeIDs []string, asOf time.Time) (map[string][]payroll.EmployeePayrollComponent, error) {
	result := make(map[string][]payroll.EmployeePayrollComponent, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + employeeComponentColumns + employeeComponentFrom + `
		WHERE pc.company_id = $1
		  AND epc.employee_id = ANY($2)
		  AND pc.is_active = TRUE
		  AND pc.deleted_at IS NULL
		  AND epc.effective_date <= $3
		  AND (epc.end_date IS NULL OR epc.end_date >= $3)
		ORDER BY pc.name`
	rows, err := q.Query(ctx, query, companyID, employeeIDs, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to get active components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanEmployeeComponent(rows)
		if err != nil {
			return nil, err
		}
		result[c.EmployeeID] = append(result[c.EmployeeID], c)
	}
	return result, rows.Err()
}

// ========== PAYROLL RECORDS ==========

const recordColumns = `
	pr.id, pr.employee_id, pr.company_id, pr.period_month, pr.period_year, pr.currency,
	pr.basic_salary, pr.allowances, pr.deductions, pr.total_allowances, pr.total_deductions,
	pr.work_days, pr.present_days, pr.absent_days, pr.late_minutes,
	pr.late_deduction, pr.absence_deduction, pr.gross_salary, pr.net_salary,
	pr.status, pr.rejection_reason, pr.approved_by, pr.approved_at, pr.paid_by, pr.paid_at,
	pr.notes, pr.created_at, pr.updated_at,
	u.name, e.employee_code, e.user_id, e.department, e.position`

const recordFrom = `
	FROM payroll_records pr
	JOIN employees e ON e.id = pr.employee_id
	JOIN users u ON u.id = e.user_id`

func scanRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	var allowances, deductions []byte
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.PeriodMonth, &rec.PeriodYear, &rec.Currency,
		&rec.BasicSalary, &allowances, &deductions, &rec.TotalAllowances, &rec.TotalDeductions,
		&rec.WorkDays, &rec.PresentDays, &rec.AbsentDays, &rec.LateMinutes,
		&rec.LateDeduction, &rec.AbsenceDeduction, &rec.GrossSalary, &rec.NetSalary,
		&rec.Status, &rec.RejectionReason, &rec.ApprovedBy, &rec.ApprovedAt, &rec.PaidBy, &rec.PaidAt,
		&rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName, &rec.EmployeeCode, &rec.EmployeeUserID, &rec.Department, &rec.Position,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, err
	}
	if err := json.Unmarshal(allowances, &rec.Allowances); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	if err := json.Unmarshal(deductions, &rec.Deductions); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]payroll.PayrollRecord, error) {
	defer rows.Close()

	records := make([]payroll.PayrollRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func linesJSON(lines []payroll.Line) ([]byte, error) {
	if lines == nil {
		lines = []payroll.Line{}
	}
	return json.Marshal(lines)
}

// CreatePayrollRecord inserts a record unless the employee already has one for
// the period. The conflict is absorbed by the insert so a surrounding
// transaction stays usable.
func (r *payrollRepository) CreatePayrollRecord(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	allowances, err := linesJSON(record.Allowances)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	deductions, err := linesJSON(record.Deductions)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	query := `
		INSERT INTO payroll_records (
			employee_id, company_id, period_month, period_year, currency,
			basic_salary, allowances, deductions, total_allowances, total_deductions,
			work_days, present_days, absent_days, late_minutes,
			late_deduction, absence_deduction, gross_salary, net_salary, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT ON CONSTRAINT payroll_records_employee_period_key DO NOTHING
		RETURNING id, created_at, updated_at
	`
	err = q.QueryRow(ctx, query,
		record.EmployeeID, record.CompanyID, record.PeriodMonth, record.PeriodYear, record.Currency,
		record.BasicSalary, allowances, deductions, record.TotalAllowances, record.TotalDeductions,
		record.WorkDays, record.PresentDays, record.AbsentDays, record.LateMinutes,
		record.LateDeduction, record.AbsenceDeduction, record.GrossSalary, record.NetSalary, record.Status, record.Notes,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyExists
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll record: %w", err)
	}
	return record, nil
}

func (r *payrollRepository) GetPayrollRecordByID(ctx context.Context, id string, companyID string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + recordColumns + recordFrom + ` WHERE pr.id = $1 AND pr.company_id = $2`
	return scanRecord(q.QueryRow(ctx, query, id, companyID))
}

func (r *payrollRepository) ExistsForPeriod(ctx context.Context, employeeID string, month, year int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM payroll_records
			WHERE employee_id = $1 AND period_month = $2 AND period_year = $3
		)
	`, employeeID, month, year).Scan(&exists)
	return exists, err
}

func (r *payrollRepository) ListPayrollRecords(ctx context.Context, companyID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere()
	w.add("pr.company_id = ?", companyID)
	if filter.Query != nil && strings.TrimSpace(*filter.Query) != "" {
		w.add("(u.name ILIKE ? OR e.employee_code ILIKE ?)", like(*filter.Query), like(*filter.Query))
	}
	if filter.PeriodMonth != nil {
		w.add("pr.period_month = ?", *filter.PeriodMonth)
	}
	if filter.PeriodYear != nil {
		w.add("pr.period_year = ?", *filter.PeriodYear)
	}
	if filter.Status != nil && *filter.Status != "" {
		w.add("pr.status = ?", *filter.Status)
	}
	if filter.EmployeeID != nil {
		w.add("pr.employee_id = ?", *filter.EmployeeID)
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) `+recordFrom+` `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payroll records: %w", err)
	}

	query := `SELECT ` + recordColumns + recordFrom + ` ` + w.sql() +
		` ORDER BY pr.period_year DESC, pr.period_month DESC, e.employee_code` + w.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	records, err := collectRecords(rows)
	return records, total, err
}

func (r *payrollRepository) ListAllPayrollRecords(ctx context.Context, companyID string, year *int) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere()
	w.add("pr.company_id = ?", companyID)
	if year != nil {
		w.add("pr.period_year = ?", *year)
	}

	query := `SELECT ` + recordColumns + recordFrom + ` ` + w.sql() +
		` ORDER BY pr.period_year DESC, pr.period_month DESC, e.employee_code`
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *payrollRepository) UpdatePayrollStatus(ctx context.Context, record payroll.PayrollRecord, from payroll.PayrollStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_records
		SET status = $1,
		    rejection_reason = $2,
		    approved_by = $3,
		    approved_at = $4,
		    paid_by = $5,
		    paid_at = $6,
		    updated_at = NOW()
		WHERE id = $7 AND company_id = $8 AND status = $9
	`,
		record.Status,
		record.RejectionReason,
		record.ApprovedBy,
		record.ApprovedAt,
		record.PaidBy,
		record.PaidAt,
		record.ID,
		record.CompanyID,
		from,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrInvalidStatusTransition
	}
	return nil
}

func (r *payrollRepository) DeletePayrollRecord(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM payroll_records
		WHERE id = $1 AND company_id = $2 AND status <> 'paid'
	`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRecordNotFound
	}
	return nil
}

// ========== EMPLOYEE-FACING ==========

func (r *payrollRepository) ListEmployeePayslips(ctx context.Context, employeeID string, year *int, statuses []payroll.PayrollStatus) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere()
	w.add("pr.employee_id = ?", employeeID)
	if year != nil {
		w.add("pr.period_year = ?", *year)
	}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		w.add("pr.status = ANY(?)", names)
	}

	query := `SELECT ` + recordColumns + recordFrom + ` ` + w.sql() +
		` ORDER BY pr.period_year DESC, pr.period_month DESC`
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *payrollRepository) GetEmployeePayslip(ctx context.Context, employeeID string, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + recordColumns + recordFrom + ` WHERE pr.id = $1 AND pr.employee_id = $2`
	return scanRecord(q.QueryRow(ctx, query, id, employeeID))
}

// ========== AGGREGATIONS ==========

func (r *payrollRepository) GetPayrollSummary(ctx context.Context, companyID string, month, year int) (payroll.PayrollSummaryResponse, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COALESCE(MAX(currency), ''),
			COUNT(*),
			COALESCE(SUM(basic_salary), 0),
			COALESCE(SUM(total_allowances), 0),
			COALESCE(SUM(total_deductions), 0),
			COALESCE(SUM(late_deduction), 0),
			COALESCE(SUM(absence_deduction), 0),
			COALESCE(SUM(gross_salary), 0),
			COALESCE(SUM(net_salary), 0),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM payroll_records
		WHERE company_id = $1 AND period_month = $2 AND period_year = $3
	`

	var s payroll.PayrollSummaryResponse
	err := q.QueryRow(ctx, query, companyID, month, year).Scan(
		&s.Currency,
		&s.TotalEmployees,
		&s.TotalBasicSalary,
		&s.TotalAllowances,
		&s.TotalDeductions,
		&s.TotalLateDeduction,
		&s.TotalAbsenceDeduction,
		&s.TotalGrossSalary,
		&s.TotalNetSalary,
		&s.PendingCount,
		&s.ApprovedCount,
		&s.PaidCount,
		&s.RejectedCount,
	)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, fmt.Errorf("failed to get payroll summary: %w", err)
	}

	s.PeriodMonth = month
	s.PeriodYear = year
	return s, nil
}
