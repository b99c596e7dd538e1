package employee

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

type EmployeeResponse struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	CompanyID         string          `json:"company_id"`
	EmployeeCode      string          `json:"employee_code"`
	FullName          string          `json:"full_name"`
	Email             string          `json:"email"`
	Department        *string         `json:"department,omitempty"`
	Position          *string         `json:"position,omitempty"`
	EmploymentType    string          `json:"employment_type"`
	EmploymentStatus  string          `json:"employment_status"`
	BasicSalary       decimal.Decimal `json:"basic_salary"`
	HireDate          string          `json:"hire_date"`
	BankName          *string         `json:"bank_name,omitempty"`
	BankAccountNumber *string         `json:"bank_account_number,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

func ToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                e.ID,
		UserID:            e.UserID,
		CompanyID:         e.CompanyID,
		EmployeeCode:      e.EmployeeCode,
		FullName:          e.FullName,
		Email:             e.Email,
		Department:        e.Department,
		Position:          e.Position,
		EmploymentType:    string(e.EmploymentType),
		EmploymentStatus:  string(e.EmploymentStatus),
		BasicSalary:       e.BasicSalary,
		HireDate:          e.HireDate.Format("2006-01-02"),
		BankName:          e.BankName,
		BankAccountNumber: e.BankAccountNumber,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         e.UpdatedAt.Format(time.RFC3339),
	}
}

type EmployeeFilter struct {
	CompanyID  string  `json:"-"`
	Search     *string `json:"search,omitempty"`
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *EmployeeFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !EmploymentStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be active or inactive",
		})
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListEmployeeResponse struct {
	Employees  []EmployeeResponse `json:"employees"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

type UpdateEmployeeRequest struct {
	Department        *string `json:"department,omitempty"`
	Position          *string `json:"position,omitempty"`
	EmploymentType    *string `json:"employment_type,omitempty"`
	EmploymentStatus  *string `json:"employment_status,omitempty"`
	BasicSalary       *string `json:"basic_salary,omitempty"`
	HireDate          *string `json:"hire_date,omitempty"`
	BankName          *string `json:"bank_name,omitempty"`
	BankAccountNumber *string `json:"bank_account_number,omitempty"`

	// Parsed by Validate
	BasicSalaryValue *decimal.Decimal `json:"-"`
	HireDateValue    *time.Time       `json:"-"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Department != nil {
		*r.Department = strings.TrimSpace(*r.Department)
		if len(*r.Department) > 100 {
			errs = append(errs, validator.ValidationError{
				Field:   "department",
				Message: "department must not exceed 100 characters",
			})
		}
	}
	if r.Position != nil {
		*r.Position = strings.TrimSpace(*r.Position)
		if len(*r.Position) > 100 {
			errs = append(errs, validator.ValidationError{
				Field:   "position",
				Message: "position must not exceed 100 characters",
			})
		}
	}
	if r.EmploymentType != nil && !EmploymentType(*r.EmploymentType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "employment_type",
			Message: "employment_type must be one of permanent, probation, contract, internship",
		})
	}
	if r.EmploymentStatus != nil && !EmploymentStatus(*r.EmploymentStatus).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "employment_status",
			Message: "employment_status must be active or inactive",
		})
	}
	if r.BasicSalary != nil {
		salary, err := decimal.NewFromString(*r.BasicSalary)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "basic_salary",
				Message: "basic_salary must be a decimal number",
			})
		} else if salary.IsNegative() {
			errs = append(errs, validator.ValidationError{
				Field:   "basic_salary",
				Message: "basic_salary cannot be negative",
			})
		} else {
			salary = salary.Round(2)
			r.BasicSalaryValue = &salary
		}
	}
	if r.HireDate != nil {
		d, ok := validator.IsValidDate(*r.HireDate)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "hire_date",
				Message: "hire_date must be YYYY-MM-DD",
			})
		} else {
			r.HireDateValue = &d
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
