package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/currency"
)

// CalculationInput holds everything a payslip is computed from.
type CalculationInput struct {
	BasicSalary decimal.Decimal
	Allowances  []Line
	Deductions  []Line
	Settings    PayrollSettings
	WorkDays    int
	AbsentDays  int
	LateMinutes int
	Currency    string
}

// Breakdown is the computed money side of a payslip.
type Breakdown struct {
	TotalAllowances  decimal.Decimal
	TotalDeductions  decimal.Decimal
	LateDeduction    decimal.Decimal
	AbsenceDeduction decimal.Decimal
	GrossSalary      decimal.Decimal
	NetSalary        decimal.Decimal
}

// Calculate applies gross = basic + allowances and
// net = gross - deductions - late deduction - absence deduction.
// Net is clamped at zero. Every amount is rounded to the minor units of
// in.Currency, or 2 places when it is unknown.
func Calculate(in CalculationInput) Breakdown {
	var b Breakdown
	round := func(d decimal.Decimal) decimal.Decimal { return currency.Round(d, in.Currency) }

	b.TotalAllowances = round(sumLines(in.Allowances))
	b.TotalDeductions = round(sumLines(in.Deductions))

	if in.Settings.LateDeductionEnabled && in.LateMinutes > 0 {
		b.LateDeduction = round(in.Settings.LateDeductionPerMinute.Mul(decimal.NewFromInt(int64(in.LateMinutes))))
	}

	if in.Settings.AbsenceDeductionEnabled && in.AbsentDays > 0 {
		days := in.Settings.WorkingDaysPerMonth
		if days <= 0 {
			days = in.WorkDays
		}
		if days > 0 {
			daily := in.BasicSalary.Div(decimal.NewFromInt(int64(days)))
			b.AbsenceDeduction = round(daily.Mul(decimal.NewFromInt(int64(in.AbsentDays))))
		}
	}

	b.GrossSalary = round(in.BasicSalary.Add(b.TotalAllowances))

	net := b.GrossSalary.
		Sub(b.TotalDeductions).
		Sub(b.LateDeduction).
		Sub(b.AbsenceDeduction)
	if net.IsNegative() {
		net = decimal.Zero
	}
	b.NetSalary = round(net)

	return b
}

func sumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// SplitComponents turns an employee's assigned components into payslip lines.
func SplitComponents(components []EmployeePayrollComponent) (allowances, deductions []Line) {
	allowances = []Line{}
	deductions = []Line{}
	for _, c := range components {
		line := Line{Name: c.ComponentName, Amount: c.Amount.Round(2)}
		switch c.ComponentType {
		case ComponentTypeAllowance:
			allowances = append(allowances, line)
		case ComponentTypeDeduction:
			deductions = append(deductions, line)
		}
	}
	return allowances, deductions
}
