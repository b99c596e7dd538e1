package payroll

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/currency"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/export"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/payslip"
)

const moneyFormat = "#,##0.00"

var exportColumns = []export.Column{
	{Header: "Employee Code", Width: 16},
	{Header: "Employee Name", Width: 28},
	{Header: "Department", Width: 18},
	{Header: "Period", Width: 10},
	{Header: "Status", Width: 11},
	{Header: "Currency", Width: 9},
	{Header: "Basic Salary", Width: 15, NumFmt: moneyFormat},
	{Header: "Allowances", Width: 14, NumFmt: moneyFormat},
	{Header: "Deductions", Width: 14, NumFmt: moneyFormat},
	{Header: "Late Deduction", Width: 15, NumFmt: moneyFormat},
	{Header: "Absence Deduction", Width: 18, NumFmt: moneyFormat},
	{Header: "Gross Salary", Width: 15, NumFmt: moneyFormat},
	{Header: "Net Salary", Width: 15, NumFmt: moneyFormat},
	{Header: "Work Days", Width: 10},
	{Header: "Absent Days", Width: 11},
	{Header: "Late Minutes", Width: 12},
}

// Export renders the company's payroll records matching filter as a
// spreadsheet with a totals row.
func (s *PayrollServiceImpl) Export(ctx context.Context, filter payroll.RecordFilter) (payroll.ExportFile, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.ExportFile{}, err
	}
	if filter.Month < 0 || filter.Month > 12 {
		return payroll.ExportFile{}, payroll.ErrInvalidPeriod
	}
	if err := payroll.ValidateStatusFilter(filter.Status); err != nil {
		return payroll.ExportFile{}, err
	}

	var year *int
	if filter.Year != 0 {
		year = &filter.Year
	}
	all, err := s.payrollRepo.ListAllPayrollRecords(ctx, claims.CompanyID, year)
	if err != nil {
		return payroll.ExportFile{}, fmt.Errorf("failed to list payroll records: %w", err)
	}
	records := payroll.FilterRecords(all, filter)

	sheet := export.Sheet{
		Name:    "Payroll",
		Columns: exportColumns,
		Rows:    make([][]any, 0, len(records)),
	}
	var basic, allowances, deductions, late, absence, gross, net decimal.Decimal
	for _, r := range records {
		department := ""
		if r.Department != nil {
			department = *r.Department
		}
		sheet.Rows = append(sheet.Rows, []any{
			r.EmployeeCode,
			r.EmployeeName,
			department,
			r.Period().Format("2006-01"),
			string(r.Status),
			r.Currency,
			r.BasicSalary.InexactFloat64(),
			r.TotalAllowances.InexactFloat64(),
			r.TotalDeductions.InexactFloat64(),
			r.LateDeduction.InexactFloat64(),
			r.AbsenceDeduction.InexactFloat64(),
			r.GrossSalary.InexactFloat64(),
			r.NetSalary.InexactFloat64(),
			r.WorkDays,
			r.AbsentDays,
			r.LateMinutes,
		})
		basic = basic.Add(r.BasicSalary)
		allowances = allowances.Add(r.TotalAllowances)
		deductions = deductions.Add(r.TotalDeductions)
		late = late.Add(r.LateDeduction)
		absence = absence.Add(r.AbsenceDeduction)
		gross = gross.Add(r.GrossSalary)
		net = net.Add(r.NetSalary)
	}
	if len(records) > 0 {
		sheet.Totals = []any{
			"Total", fmt.Sprintf("%d employees", len(records)), "", "", "", "",
			basic.InexactFloat64(),
			allowances.InexactFloat64(),
			deductions.InexactFloat64(),
			late.InexactFloat64(),
			absence.InexactFloat64(),
			gross.InexactFloat64(),
			net.InexactFloat64(),
			"", "", "",
		}
	}

	content, err := export.WriteXLSX(sheet)
	if err != nil {
		return payroll.ExportFile{}, fmt.Errorf("failed to render payroll export: %w", err)
	}
	return payroll.ExportFile{
		Filename:    exportFilename(filter),
		ContentType: export.XLSXContentType,
		Content:     content,
	}, nil
}

func exportFilename(f payroll.RecordFilter) string {
	switch {
	case f.Year != 0 && f.Month != 0:
		return fmt.Sprintf("payroll-%04d-%02d.xlsx", f.Year, f.Month)
	case f.Year != 0:
		return fmt.Sprintf("payroll-%04d.xlsx", f.Year)
	}
	return "payroll.xlsx"
}

// DownloadMyPayslip renders one of the caller's visible payslips as PDF.
func (s *PayrollServiceImpl) DownloadMyPayslip(ctx context.Context, id string) (payroll.ExportFile, error) {
	record, err := s.myPayslip(ctx, id)
	if err != nil {
		return payroll.ExportFile{}, err
	}

	c, err := s.companyRepo.GetByID(ctx, record.CompanyID)
	if err != nil {
		return payroll.ExportFile{}, fmt.Errorf("failed to get company: %w", err)
	}

	return payroll.ExportFile{
		Filename:    fmt.Sprintf("payslip-%s-%04d-%02d.pdf", strings.ToLower(record.EmployeeCode), record.PeriodYear, record.PeriodMonth),
		ContentType: payslip.ContentType,
		Content:     payslip.Render(payslipDocument(c.Name, record)),
	}, nil
}

func payslipDocument(companyName string, r payroll.PayrollRecord) payslip.Document {
	money := func(d decimal.Decimal) string {
		if s := currency.Format(d, r.Currency); payslip.Encodable(s) {
			return s
		}
		return currency.FormatCode(d, r.Currency)
	}

	rows := []payslip.Row{
		{Label: "Earnings"},
		{Label: "Basic salary", Value: money(r.BasicSalary)},
	}
	for _, a := range r.Allowances {
		rows = append(rows, payslip.Row{Label: a.Name, Value: money(a.Amount)})
	}
	rows = append(rows,
		payslip.Row{Label: "Gross salary", Value: money(r.GrossSalary)},
		payslip.Row{Label: "Deductions"},
	)
	for _, d := range r.Deductions {
		rows = append(rows, payslip.Row{Label: d.Name, Value: "-" + money(d.Amount)})
	}
	if r.LateDeduction.IsPositive() {
		rows = append(rows, payslip.Row{Label: fmt.Sprintf("Late (%d min)", r.LateMinutes), Value: "-" + money(r.LateDeduction)})
	}
	if r.AbsenceDeduction.IsPositive() {
		rows = append(rows, payslip.Row{Label: fmt.Sprintf("Absence (%d days)", r.AbsentDays), Value: "-" + money(r.AbsenceDeduction)})
	}
	rows = append(rows,
		payslip.Row{Label: "Attendance"},
		payslip.Row{Label: "Working days", Value: fmt.Sprint(r.WorkDays)},
		payslip.Row{Label: "Days present", Value: fmt.Sprint(r.PresentDays)},
		payslip.Row{Label: "Days absent", Value: fmt.Sprint(r.AbsentDays)},
	)

	footer := "Status: " + string(r.Status)
	if r.PaidAt != nil {
		footer = "Paid on " + r.PaidAt.Format("02 Jan 2006")
	}

	return payslip.Document{
		CompanyName:  companyName,
		Title:        "Payslip",
		EmployeeName: r.EmployeeName,
		EmployeeCode: r.EmployeeCode,
		Period:       r.Period().Format("January 2006"),
		Rows:         rows,
		NetLabel:     "Net salary",
		NetValue:     money(r.NetSalary),
		Footer:       footer,
	}
}
