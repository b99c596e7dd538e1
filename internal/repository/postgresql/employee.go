package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	e.id, e.user_id, e.company_id, e.employee_code, e.department, e.position,
	e.employment_type, e.employment_status, e.basic_salary, e.hire_date,
	e.bank_name, e.bank_account_number, e.created_at, e.updated_at,
	u.name, u.email`

const employeeFrom = `
	FROM employees e
	JOIN users u ON u.id = e.user_id`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.CompanyID,
		&e.EmployeeCode,
		&e.Department,
		&e.Position,
		&e.EmploymentType,
		&e.EmploymentStatus,
		&e.BasicSalary,
		&e.HireDate,
		&e.BankName,
		&e.BankAccountNumber,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.FullName,
		&e.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return e, nil
}

func collectEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + employeeColumns + employeeFrom + ` WHERE e.id = $1 AND e.company_id = $2`
	return scanEmployee(q.QueryRow(ctx, query, id, companyID))
}

func (r *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + employeeColumns + employeeFrom + ` WHERE e.user_id = $1 AND u.deleted_at IS NULL`
	return scanEmployee(q.QueryRow(ctx, query, userID))
}

func (r *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (
			user_id, company_id, employee_code, department, position, employment_type,
			employment_status, basic_salary, hire_date, bank_name, bank_account_number
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newEmployee.UserID,
		newEmployee.CompanyID,
		newEmployee.EmployeeCode,
		newEmployee.Department,
		newEmployee.Position,
		newEmployee.EmploymentType,
		newEmployee.EmploymentStatus,
		newEmployee.BasicSalary,
		newEmployee.HireDate,
		newEmployee.BankName,
		newEmployee.BankAccountNumber,
	).Scan(&newEmployee.ID, &newEmployee.CreatedAt, &newEmployee.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "employees_company_code_key") {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
		return employee.Employee{}, err
	}
	return newEmployee, nil
}

// NextEmployeeCode returns EMP-NNNN, one past the highest code of the
// company. The company row is locked so concurrent joins get distinct codes.
func (r *employeeRepositoryImpl) NextEmployeeCode(ctx context.Context, companyID string) (string, error) {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT 1 FROM companies WHERE id = $1 FOR UPDATE`, companyID); err != nil {
		return "", err
	}

	var last int
	err := q.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(employee_code FROM 5) AS INTEGER)), 0)
		FROM employees
		WHERE company_id = $1 AND employee_code ~ '^EMP-[0-9]+$'
	`, companyID).Scan(&last)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EMP-%04d", last+1), nil
}

func (r *employeeRepositoryImpl) Update(ctx context.Context, companyID, id string, req employee.UpdateEmployeeRequest) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE employees
		SET department = COALESCE($1, department),
		    position = COALESCE($2, position),
		    employment_type = COALESCE($3, employment_type),
		    employment_status = COALESCE($4, employment_status),
		    basic_salary = COALESCE($5, basic_salary),
		    hire_date = COALESCE($6, hire_date),
		    bank_name = COALESCE($7, bank_name),
		    bank_account_number = COALESCE($8, bank_account_number),
		    updated_at = NOW()
		WHERE id = $9 AND company_id = $10
	`,
		req.Department,
		req.Position,
		req.EmploymentType,
		req.EmploymentStatus,
		req.BasicSalaryValue,
		req.HireDateValue,
		req.BankName,
		req.BankAccountNumber,
		id,
		companyID,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	if tag.RowsAffected() == 0 {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return r.GetByID(ctx, companyID, id)
}

func (r *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, r.db)

	w := newWhere("u.deleted_at IS NULL")
	w.add("e.company_id = ?", filter.CompanyID)
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		s := like(*filter.Search)
		w.add("(u.name ILIKE ? OR e.employee_code ILIKE ? OR u.email ILIKE ?)", s, s, s)
	}
	if filter.Department != nil {
		w.add("e.department = ?", *filter.Department)
	}
	if filter.Status != nil {
		w.add("e.employment_status = ?", *filter.Status)
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*)`+employeeFrom+` `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	query := `SELECT ` + employeeColumns + employeeFrom + ` ` + w.sql() +
		` ORDER BY e.employee_code` + w.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	employees, err := collectEmployees(rows)
	return employees, total, err
}

func (r *employeeRepositoryImpl) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + employeeFrom + `
		WHERE e.company_id = $1 AND e.employment_status = 'active' AND u.deleted_at IS NULL
		ORDER BY e.employee_code`
	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	return collectEmployees(rows)
}

func (r *employeeRepositoryImpl) CountActive(ctx context.Context, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*)`+employeeFrom+`
		WHERE e.company_id = $1 AND e.employment_status = 'active' AND u.deleted_at IS NULL`,
		companyID,
	).Scan(&n)
	return n, err
}
