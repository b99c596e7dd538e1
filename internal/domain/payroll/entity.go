package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayrollSettings - Company payroll configuration
type PayrollSettings struct {
	ID                      string
	CompanyID               string
	LateDeductionEnabled    bool
	LateDeductionPerMinute  decimal.Decimal
	AbsenceDeductionEnabled bool
	WorkingDaysPerMonth     int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// DefaultSettings is used until a company saves its own.
func DefaultSettings(companyID string) PayrollSettings {
	return PayrollSettings{
		CompanyID:               companyID,
		LateDeductionEnabled:    false,
		LateDeductionPerMinute:  decimal.Zero,
		AbsenceDeductionEnabled: false,
		WorkingDaysPerMonth:     22,
	}
}

// ComponentType enum
type ComponentType string

const (
	ComponentTypeAllowance ComponentType = "allowance"
	ComponentTypeDeduction ComponentType = "deduction"
)

// PayrollComponent - Master payroll component
type PayrollComponent struct {
	ID          string
	CompanyID   string
	Name        string
	Type        ComponentType
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmployeePayrollComponent - Component assignment to employee
type EmployeePayrollComponent struct {
	ID                 string
	EmployeeID         string
	PayrollComponentID string
	Amount             decimal.Decimal
	EffectiveDate      time.Time
	EndDate            *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Joined fields
	ComponentName string
	ComponentType ComponentType
}

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusPending  PayrollStatus = "pending"
	PayrollStatusApproved PayrollStatus = "approved"
	PayrollStatusPaid     PayrollStatus = "paid"
	PayrollStatusRejected PayrollStatus = "rejected"
)

func (s PayrollStatus) IsValid() bool {
	switch s {
	case PayrollStatusPending, PayrollStatusApproved, PayrollStatusPaid, PayrollStatusRejected:
		return true
	}
	return false
}

var transitions = map[PayrollStatus][]PayrollStatus{
	PayrollStatusPending:  {PayrollStatusApproved, PayrollStatusRejected},
	PayrollStatusApproved: {PayrollStatusPaid},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to PayrollStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VisibleToEmployee reports whether a payslip may be shown to its employee.
func (s PayrollStatus) VisibleToEmployee() bool {
	return s == PayrollStatusApproved || s == PayrollStatusPaid
}

// Line is one named allowance or deduction on a payslip.
type Line struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// PayrollRecord - Generated payroll result
type PayrollRecord struct {
	ID               string
	EmployeeID       string
	CompanyID        string
	PeriodMonth      int
	PeriodYear       int
	Currency         string
	BasicSalary      decimal.Decimal
	Allowances       []Line
	Deductions       []Line
	TotalAllowances  decimal.Decimal
	TotalDeductions  decimal.Decimal
	WorkDays         int
	PresentDays      int
	AbsentDays       int
	LateMinutes      int
	LateDeduction    decimal.Decimal
	AbsenceDeduction decimal.Decimal
	GrossSalary      decimal.Decimal
	NetSalary        decimal.Decimal
	Status           PayrollStatus
	RejectionReason  *string
	ApprovedBy       *string
	ApprovedAt       *time.Time
	PaidBy           *string
	PaidAt           *time.Time
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined fields
	EmployeeName   string
	EmployeeCode   string
	EmployeeUserID string
	Department     *string
	Position       *string
}

// Period returns the first day of the record's month.
func (r PayrollRecord) Period() time.Time {
	return time.Date(r.PeriodYear, time.Month(r.PeriodMonth), 1, 0, 0, 0, 0, time.UTC)
}

// RecordFilter is the in-memory filter applied to payroll lists.
// Zero values match everything.
type RecordFilter struct {
	Query  string
	Status string
	Month  int
	Year   int
}

// StatusFilter normalizes a status filter value. "all" and blank mean no
// filter and yield "".
func StatusFilter(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return ""
	}
	return s
}

// FilterRecords returns the records matching f, keeping their order.
// Query matches employee name or code case-insensitively. The input slice
// is not modified, so applying the same filter twice yields the same result.
func FilterRecords(records []PayrollRecord, f RecordFilter) []PayrollRecord {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	status := StatusFilter(f.Status)

	out := make([]PayrollRecord, 0, len(records))
	for _, r := range records {
		if query != "" &&
			!strings.Contains(strings.ToLower(r.EmployeeName), query) &&
			!strings.Contains(strings.ToLower(r.EmployeeCode), query) {
			continue
		}
		if status != "" && string(r.Status) != status {
			continue
		}
		if f.Month != 0 && r.PeriodMonth != f.Month {
			continue
		}
		if f.Year != 0 && r.PeriodYear != f.Year {
			continue
		}
		out = append(out, r)
	}
	return out
}
