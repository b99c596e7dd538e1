package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to PayrollStatus
		want     bool
	}{
		{PayrollStatusPending, PayrollStatusApproved, true},
		{PayrollStatusPending, PayrollStatusRejected, true},
		{PayrollStatusApproved, PayrollStatusPaid, true},
		{PayrollStatusPending, PayrollStatusPaid, false},
		{PayrollStatusApproved, PayrollStatusRejected, false},
		{PayrollStatusRejected, PayrollStatusPending, false},
		{PayrollStatusRejected, PayrollStatusApproved, false},
		{PayrollStatusPaid, PayrollStatusPending, false},
		{PayrollStatusPaid, PayrollStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestVisibleToEmployee(t *testing.T) {
	assert.True(t, PayrollStatusApproved.VisibleToEmployee())
	assert.True(t, PayrollStatusPaid.VisibleToEmployee())
	assert.False(t, PayrollStatusPending.VisibleToEmployee())
	assert.False(t, PayrollStatusRejected.VisibleToEmployee())
}

func sampleRecords() []PayrollRecord {
	return []PayrollRecord{
		{ID: "1", EmployeeName: "Ada Lovelace", EmployeeCode: "EMP-0001", PeriodMonth: 1, PeriodYear: 2025, Status: PayrollStatusPaid},
		{ID: "2", EmployeeName: "Alan Turing", EmployeeCode: "EMP-0002", PeriodMonth: 1, PeriodYear: 2025, Status: PayrollStatusPending},
		{ID: "3", EmployeeName: "Grace Hopper", EmployeeCode: "EMP-0003", PeriodMonth: 2, PeriodYear: 2025, Status: PayrollStatusApproved},
		{ID: "4", EmployeeName: "Ada Byron", EmployeeCode: "EMP-0004", PeriodMonth: 2, PeriodYear: 2024, Status: PayrollStatusPending},
	}
}

func ids(records []PayrollRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterRecords(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name   string
		filter RecordFilter
		want   []string
	}{
		{"no filter", RecordFilter{}, []string{"1", "2", "3", "4"}},
		{"query by name is case insensitive", RecordFilter{Query: "ada"}, []string{"1", "4"}},
		{"query by code", RecordFilter{Query: "emp-0003"}, []string{"3"}},
		{"status", RecordFilter{Status: "pending"}, []string{"2", "4"}},
		{"status all", RecordFilter{Status: "all"}, []string{"1", "2", "3", "4"}},
		{"month", RecordFilter{Month: 2}, []string{"3", "4"}},
		{"year", RecordFilter{Year: 2025}, []string{"1", "2", "3"}},
		{"combined", RecordFilter{Query: "a", Status: "pending", Month: 1, Year: 2025}, []string{"2"}},
		{"no match", RecordFilter{Query: "nobody"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterRecords(records, tt.filter)))
		})
	}
}

func TestFilterRecords_IdempotentAndPure(t *testing.T) {
	records := sampleRecords()
	f := RecordFilter{Query: "ada", Year: 2025}

	once := FilterRecords(records, f)
	twice := FilterRecords(once, f)

	assert.Equal(t, ids(once), ids(twice))
	assert.Len(t, records, 4)
	assert.Equal(t, "1", records[0].ID)
}

func TestCalculate(t *testing.T) {
	d := decimal.RequireFromString

	t.Run("gross and net", func(t *testing.T) {
		b := Calculate(CalculationInput{
			BasicSalary: d("5000"),
			Allowances:  []Line{{Name: "Transport", Amount: d("250.50")}, {Name: "Meal", Amount: d("100")}},
			Deductions:  []Line{{Name: "Pension", Amount: d("200")}},
			Settings:    DefaultSettings("c1"),
		})
		assert.True(t, d("350.5").Equal(b.TotalAllowances))
		assert.True(t, d("200").Equal(b.TotalDeductions))
		assert.True(t, d("5350.5").Equal(b.GrossSalary))
		assert.True(t, d("5150.5").Equal(b.NetSalary))
		assert.True(t, b.LateDeduction.IsZero())
		assert.True(t, b.AbsenceDeduction.IsZero())
	})

	t.Run("late and absence deductions", func(t *testing.T) {
		settings := PayrollSettings{
			LateDeductionEnabled:    true,
			LateDeductionPerMinute:  d("0.5"),
			AbsenceDeductionEnabled: true,
			WorkingDaysPerMonth:     20,
		}
		b := Calculate(CalculationInput{
			BasicSalary: d("4000"),
			Settings:    settings,
			AbsentDays:  2,
			LateMinutes: 45,
		})
		assert.True(t, d("22.5").Equal(b.LateDeduction))
		assert.True(t, d("400").Equal(b.AbsenceDeduction))
		assert.True(t, d("4000").Equal(b.GrossSalary))
		assert.True(t, d("3577.5").Equal(b.NetSalary))
	})

	t.Run("disabled settings ignore attendance", func(t *testing.T) {
		b := Calculate(CalculationInput{
			BasicSalary: d("1000"),
			Settings:    PayrollSettings{LateDeductionPerMinute: d("10"), WorkingDaysPerMonth: 20},
			AbsentDays:  5,
			LateMinutes: 100,
		})
		assert.True(t, d("1000").Equal(b.NetSalary))
	})

	t.Run("net clamped at zero", func(t *testing.T) {
		b := Calculate(CalculationInput{
			BasicSalary: d("100"),
			Deductions:  []Line{{Name: "Loan", Amount: d("500")}},
			Settings:    DefaultSettings("c1"),
		})
		assert.True(t, b.NetSalary.IsZero())
	})

	t.Run("rounds to cents", func(t *testing.T) {
		b := Calculate(CalculationInput{
			BasicSalary: d("1000"),
			Settings:    PayrollSettings{AbsenceDeductionEnabled: true, WorkingDaysPerMonth: 3},
			AbsentDays:  1,
		})
		assert.True(t, d("333.33").Equal(b.AbsenceDeduction))
		assert.True(t, d("666.67").Equal(b.NetSalary))
	})

	t.Run("rounds to the currency's minor units", func(t *testing.T) {
		b := Calculate(CalculationInput{
			BasicSalary: d("100000"),
			Allowances:  []Line{{Name: "Meal", Amount: d("1500.5")}},
			Settings:    PayrollSettings{AbsenceDeductionEnabled: true, WorkingDaysPerMonth: 3},
			AbsentDays:  1,
			Currency:    "JPY",
		})
		assert.Equal(t, "1501", b.TotalAllowances.String())
		assert.Equal(t, "33333", b.AbsenceDeduction.String())
		assert.Equal(t, "101501", b.GrossSalary.String())
		assert.Equal(t, "68168", b.NetSalary.String())
	})
}

func TestSplitComponents(t *testing.T) {
	allowances, deductions := SplitComponents([]EmployeePayrollComponent{
		{ComponentName: "Housing", ComponentType: ComponentTypeAllowance, Amount: decimal.NewFromInt(300)},
		{ComponentName: "Tax", ComponentType: ComponentTypeDeduction, Amount: decimal.NewFromInt(120)},
		{ComponentName: "Phone", ComponentType: ComponentTypeAllowance, Amount: decimal.NewFromInt(50)},
	})
	require.Len(t, allowances, 2)
	require.Len(t, deductions, 1)
	assert.Equal(t, "Housing", allowances[0].Name)
	assert.Equal(t, "Tax", deductions[0].Name)
}

func TestStatusFilterAgreesWithListValidation(t *testing.T) {
	records := sampleRecords()

	for _, in := range []string{"all", "ALL", "", "Pending", " paid "} {
		t.Run(in, func(t *testing.T) {
			status := in
			f := PayrollFilter{Status: &status}
			require.NoError(t, f.Validate())

			var listed string
			if f.Status != nil {
				listed = *f.Status
			}
			assert.Equal(t, StatusFilter(in), listed)
			assert.NoError(t, ValidateStatusFilter(in))

			want := FilterRecords(records, RecordFilter{Status: listed})
			assert.Equal(t, ids(want), ids(FilterRecords(records, RecordFilter{Status: in})))
		})
	}

	bogus := "archived"
	f := PayrollFilter{Status: &bogus}
	assert.Error(t, f.Validate())
	assert.Error(t, ValidateStatusFilter(bogus))
}
