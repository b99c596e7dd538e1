package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

// ========== SETTINGS DTOs ==========

type PayrollSettingsResponse struct {
	CompanyID               string          `json:"company_id"`
	LateDeductionEnabled    bool            `json:"late_deduction_enabled"`
	LateDeductionPerMinute  decimal.Decimal `json:"late_deduction_per_minute"`
	AbsenceDeductionEnabled bool            `json:"absence_deduction_enabled"`
	WorkingDaysPerMonth     int             `json:"working_days_per_month"`
}

type UpdatePayrollSettingsRequest struct {
	LateDeductionEnabled    *bool            `json:"late_deduction_enabled,omitempty"`
	LateDeductionPerMinute  *decimal.Decimal `json:"late_deduction_per_minute,omitempty"`
	AbsenceDeductionEnabled *bool            `json:"absence_deduction_enabled,omitempty"`
	WorkingDaysPerMonth     *int             `json:"working_days_per_month,omitempty"`
}

func (r *UpdatePayrollSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.LateDeductionPerMinute != nil && r.LateDeductionPerMinute.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "late_deduction_per_minute", Message: "must be non-negative"})
	}
	if r.WorkingDaysPerMonth != nil && (*r.WorkingDaysPerMonth < 1 || *r.WorkingDaysPerMonth > 31) {
		errs = append(errs, validator.ValidationError{Field: "working_days_per_month", Message: "must be between 1 and 31"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== COMPONENT DTOs ==========

type CreatePayrollComponentRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"` // "allowance" or "deduction"
	Description *string `json:"description,omitempty"`
}

func (r *CreatePayrollComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	} else if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "must not exceed 100 characters"})
	}
	if r.Type != string(ComponentTypeAllowance) && r.Type != string(ComponentTypeDeduction) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be 'allowance' or 'deduction'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePayrollComponentRequest struct {
	ID          string  `json:"-"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r *UpdatePayrollComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		if *r.Name == "" {
			errs = append(errs, validator.ValidationError{Field: "name", Message: "must not be empty"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrollComponentResponse struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

func ToComponentResponse(c PayrollComponent) PayrollComponentResponse {
	return PayrollComponentResponse{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		Name:        c.Name,
		Type:        string(c.Type),
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

// ========== EMPLOYEE COMPONENT DTOs ==========

type AssignComponentRequest struct {
	EmployeeID         string          `json:"-"`
	PayrollComponentID string          `json:"payroll_component_id"`
	Amount             decimal.Decimal `json:"amount"`
	EffectiveDate      *string         `json:"effective_date,omitempty"`
	EndDate            *string         `json:"end_date,omitempty"`

	EffectiveDateValue time.Time  `json:"-"`
	EndDateValue       *time.Time `json:"-"`
}

func (r *AssignComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if !validator.IsValidUUID(r.PayrollComponentID) {
		errs = append(errs, validator.ValidationError{Field: "payroll_component_id", Message: "must be a valid UUID"})
	}
	if r.Amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
	}

	r.EffectiveDateValue = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if r.EffectiveDate != nil {
		d, ok := validator.IsValidDate(*r.EffectiveDate)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "effective_date", Message: "must be YYYY-MM-DD"})
		} else {
			r.EffectiveDateValue = d
		}
	}
	if r.EndDate != nil {
		d, ok := validator.IsValidDate(*r.EndDate)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD"})
		} else if d.Before(r.EffectiveDateValue) {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must not be before effective_date"})
		} else {
			r.EndDateValue = &d
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeComponentResponse struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	PayrollComponentID string          `json:"payroll_component_id"`
	ComponentName      string          `json:"component_name"`
	ComponentType      string          `json:"component_type"`
	Amount             decimal.Decimal `json:"amount"`
	EffectiveDate      string          `json:"effective_date"`
	EndDate            *string         `json:"end_date,omitempty"`
}

func ToEmployeeComponentResponse(c EmployeePayrollComponent) EmployeeComponentResponse {
	resp := EmployeeComponentResponse{
		ID:                 c.ID,
		EmployeeID:         c.EmployeeID,
		PayrollComponentID: c.PayrollComponentID,
		ComponentName:      c.ComponentName,
		ComponentType:      string(c.ComponentType),
		Amount:             c.Amount,
		EffectiveDate:      c.EffectiveDate.Format("2006-01-02"),
	}
	if c.EndDate != nil {
		s := c.EndDate.Format("2006-01-02")
		resp.EndDate = &s
	}
	return resp
}

// ========== PAYROLL RECORD DTOs ==========

type GeneratePayrollRequest struct {
	PeriodMonth int      `json:"month"`
	PeriodYear  int      `json:"year"`
	EmployeeIDs []string `json:"employee_ids,omitempty"` // Empty = all active employees
}

func (r *GeneratePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidMonth(r.PeriodMonth) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if !validator.IsValidYear(r.PeriodYear) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	for _, id := range r.EmployeeIDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must contain valid UUIDs"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type GeneratePayrollResponse struct {
	PeriodMonth int                     `json:"month"`
	PeriodYear  int                     `json:"year"`
	Generated   int                     `json:"generated"`
	Skipped     []SkippedEmployee       `json:"skipped"`
	Records     []PayrollRecordResponse `json:"records"`
}

type SkippedEmployee struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

type RejectPayrollRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectPayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "is required"})
	} else if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "must not exceed 500 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrollRecordResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	EmployeeName     string          `json:"employee_name"`
	EmployeeCode     string          `json:"employee_code"`
	Department       *string         `json:"department,omitempty"`
	Position         *string         `json:"position,omitempty"`
	PeriodMonth      int             `json:"month"`
	PeriodYear       int             `json:"year"`
	Currency         string          `json:"currency"`
	BasicSalary      decimal.Decimal `json:"basic_salary"`
	Allowances       []Line          `json:"allowances"`
	Deductions       []Line          `json:"deductions"`
	TotalAllowances  decimal.Decimal `json:"total_allowances"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	WorkDays         int             `json:"work_days"`
	PresentDays      int             `json:"present_days"`
	AbsentDays       int             `json:"absent_days"`
	LateMinutes      int             `json:"late_minutes"`
	LateDeduction    decimal.Decimal `json:"late_deduction"`
	AbsenceDeduction decimal.Decimal `json:"absence_deduction"`
	GrossSalary      decimal.Decimal `json:"gross_salary"`
	NetSalary        decimal.Decimal `json:"net_salary"`
	NetSalaryDisplay string          `json:"net_salary_display"`
	Status           string          `json:"status"`
	RejectionReason  *string         `json:"rejection_reason,omitempty"`
	ApprovedAt       *string         `json:"approved_at,omitempty"`
	PaidAt           *string         `json:"paid_at,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	CreatedAt        string          `json:"created_at"`
}

const statusFilterMessage = "must be one of all, pending, approved, paid, rejected"

// ValidateStatusFilter rejects status filter values other than "all" and the
// known statuses.
func ValidateStatusFilter(s string) error {
	if status := StatusFilter(s); status != "" && !PayrollStatus(status).IsValid() {
		return validator.ValidationErrors{{Field: "status", Message: statusFilterMessage}}
	}
	return nil
}

type PayrollFilter struct {
	Query       *string `json:"query,omitempty"`
	PeriodMonth *int    `json:"month,omitempty"`
	PeriodYear  *int    `json:"year,omitempty"`
	Status      *string `json:"status,omitempty"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.PeriodMonth != nil && !validator.IsValidMonth(*f.PeriodMonth) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if f.PeriodYear != nil && !validator.IsValidYear(*f.PeriodYear) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	if f.Status != nil {
		if status := StatusFilter(*f.Status); status == "" {
			f.Status = nil
		} else if !PayrollStatus(status).IsValid() {
			errs = append(errs, validator.ValidationError{Field: "status", Message: statusFilterMessage})
		} else {
			f.Status = &status
		}
	}
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must not exceed 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListPayrollRecordResponse struct {
	Data       []PayrollRecordResponse `json:"data"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
}

type PayrollSummaryResponse struct {
	PeriodMonth           int             `json:"month"`
	PeriodYear            int             `json:"year"`
	Currency              string          `json:"currency"`
	TotalEmployees        int             `json:"total_employees"`
	TotalBasicSalary      decimal.Decimal `json:"total_basic_salary"`
	TotalAllowances       decimal.Decimal `json:"total_allowances"`
	TotalDeductions       decimal.Decimal `json:"total_deductions"`
	TotalLateDeduction    decimal.Decimal `json:"total_late_deduction"`
	TotalAbsenceDeduction decimal.Decimal `json:"total_absence_deduction"`
	TotalGrossSalary      decimal.Decimal `json:"total_gross_salary"`
	TotalNetSalary        decimal.Decimal `json:"total_net_salary"`
	PendingCount          int             `json:"pending_count"`
	ApprovedCount         int             `json:"approved_count"`
	PaidCount             int             `json:"paid_count"`
	RejectedCount         int             `json:"rejected_count"`
}

// ExportFile is a generated document ready to be streamed to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
