package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/currency"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/events"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

type PayrollServiceImpl struct {
	tx             database.Transactor
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	companyRepo    company.CompanyRepository
	notifier       notification.Service
	publisher      events.Publisher
	now            func() time.Time
}

type Deps struct {
	Transactor    database.Transactor
	Payroll       payroll.PayrollRepository
	Employees     employee.EmployeeRepository
	Attendance    attendance.AttendanceRepository
	Companies     company.CompanyRepository
	Notifications notification.Service
	Publisher     events.Publisher
}

func NewPayrollService(d Deps) payroll.PayrollService {
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &PayrollServiceImpl{
		tx:             d.Transactor,
		payrollRepo:    d.Payroll,
		employeeRepo:   d.Employees,
		attendanceRepo: d.Attendance,
		companyRepo:    d.Companies,
		notifier:       d.Notifications,
		publisher:      publisher,
		now:            time.Now,
	}
}

// ========== SETTINGS ==========

func (s *PayrollServiceImpl) settingsFor(ctx context.Context, companyID string) (payroll.PayrollSettings, error) {
	settings, err := s.payrollRepo.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollSettingsNotFound) {
			return payroll.DefaultSettings(companyID), nil
		}
		return payroll.PayrollSettings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}
	return settings, nil
}

func (s *PayrollServiceImpl) GetSettings(ctx context.Context) (payroll.PayrollSettingsResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	settings, err := s.settingsFor(ctx, claims.CompanyID)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}
	return toSettingsResponse(settings), nil
}

func (s *PayrollServiceImpl) UpdateSettings(ctx context.Context, req payroll.UpdatePayrollSettingsRequest) (payroll.PayrollSettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	current, err := s.settingsFor(ctx, claims.CompanyID)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, err
	}

	if req.LateDeductionEnabled != nil {
		current.LateDeductionEnabled = *req.LateDeductionEnabled
	}
	if req.LateDeductionPerMinute != nil {
		current.LateDeductionPerMinute = req.LateDeductionPerMinute.Round(2)
	}
	if req.AbsenceDeductionEnabled != nil {
		current.AbsenceDeductionEnabled = *req.AbsenceDeductionEnabled
	}
	if req.WorkingDaysPerMonth != nil {
		current.WorkingDaysPerMonth = *req.WorkingDaysPerMonth
	}

	updated, err := s.payrollRepo.UpsertSettings(ctx, current)
	if err != nil {
		return payroll.PayrollSettingsResponse{}, fmt.Errorf("failed to save payroll settings: %w", err)
	}
	return toSettingsResponse(updated), nil
}

// ========== COMPONENTS ==========

func (s *PayrollServiceImpl) CreateComponent(ctx context.Context, req payroll.CreatePayrollComponentRequest) (payroll.PayrollComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollComponentResponse{}, err
	}
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	created, err := s.payrollRepo.CreateComponent(ctx, payroll.PayrollComponent{
		CompanyID:   claims.CompanyID,
		Name:        req.Name,
		Type:        payroll.ComponentType(req.Type),
		Description: req.Description,
		IsActive:    true,
	})
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}
	return payroll.ToComponentResponse(created), nil
}

func (s *PayrollServiceImpl) ListComponents(ctx context.Context, activeOnly bool) ([]payroll.PayrollComponentResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	components, err := s.payrollRepo.GetComponentsByCompanyID(ctx, claims.CompanyID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll components: %w", err)
	}

	result := make([]payroll.PayrollComponentResponse, 0, len(components))
	for _, c := range components {
		result = append(result, payroll.ToComponentResponse(c))
	}
	return result, nil
}

func (s *PayrollServiceImpl) UpdateComponent(ctx context.Context, req payroll.UpdatePayrollComponentRequest) (payroll.PayrollComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollComponentResponse{}, err
	}
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	if err := s.payrollRepo.UpdateComponent(ctx, claims.CompanyID, req); err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	updated, err := s.payrollRepo.GetComponentByID(ctx, req.ID, claims.CompanyID)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}
	return payroll.ToComponentResponse(updated), nil
}

func (s *PayrollServiceImpl) DeleteComponent(ctx context.Context, id string) error {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	return s.payrollRepo.DeleteComponent(ctx, id, claims.CompanyID)
}

func (s *PayrollServiceImpl) AssignComponent(ctx context.Context, req payroll.AssignComponentRequest) (payroll.EmployeeComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, claims.CompanyID, req.EmployeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.EmployeeComponentResponse{}, payroll.ErrEmployeeNotFound
		}
		return payroll.EmployeeComponentResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	component, err := s.payrollRepo.GetComponentByID(ctx, req.PayrollComponentID, claims.CompanyID)
	if err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}
	if !component.IsActive {
		return payroll.EmployeeComponentResponse{}, payroll.ErrPayrollComponentNotFound
	}

	assigned, err := s.payrollRepo.AssignComponentToEmployee(ctx, payroll.EmployeePayrollComponent{
		EmployeeID:         req.EmployeeID,
		PayrollComponentID: component.ID,
		Amount:             req.Amount.Round(2),
		EffectiveDate:      req.EffectiveDateValue,
		EndDate:            req.EndDateValue,
	})
	if err != nil {
		return payroll.EmployeeComponentResponse{}, fmt.Errorf("failed to assign component: %w", err)
	}
	assigned.ComponentName = component.Name
	assigned.ComponentType = component.Type
	return payroll.ToEmployeeComponentResponse(assigned), nil
}

func (s *PayrollServiceImpl) ListEmployeeComponents(ctx context.Context, employeeID string) ([]payroll.EmployeeComponentResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	assignments, err := s.payrollRepo.GetEmployeeComponents(ctx, employeeID, claims.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee components: %w", err)
	}

	result := make([]payroll.EmployeeComponentResponse, 0, len(assignments))
	for _, a := range assignments {
		result = append(result, payroll.ToEmployeeComponentResponse(a))
	}
	return result, nil
}

func (s *PayrollServiceImpl) RemoveEmployeeComponent(ctx context.Context, id string) error {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	return s.payrollRepo.RemoveEmployeeComponent(ctx, id, claims.CompanyID)
}

// ========== PAYROLL GENERATION ==========

// Generate creates one pending record per eligible employee for the period.
// Employees that already have a record, or have no basic salary, are
// reported as skipped.
func (s *PayrollServiceImpl) Generate(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.GeneratePayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.GeneratePayrollResponse{}, err
	}
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.GeneratePayrollResponse{}, err
	}

	c, err := s.companyRepo.GetByID(ctx, claims.CompanyID)
	if err != nil {
		return payroll.GeneratePayrollResponse{}, fmt.Errorf("failed to get company: %w", err)
	}

	periodStart := time.Date(req.PeriodYear, time.Month(req.PeriodMonth), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)
	nowLocal := s.now().In(c.Location())
	if periodStart.After(time.Date(nowLocal.Year(), nowLocal.Month(), 1, 0, 0, 0, 0, time.UTC)) {
		return payroll.GeneratePayrollResponse{}, payroll.ErrInvalidPeriod
	}

	settings, err := s.settingsFor(ctx, c.ID)
	if err != nil {
		return payroll.GeneratePayrollResponse{}, err
	}

	employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, c.ID)
	if err != nil {
		return payroll.GeneratePayrollResponse{}, fmt.Errorf("failed to get employees: %w", err)
	}

	resp := payroll.GeneratePayrollResponse{
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		Skipped:     []payroll.SkippedEmployee{},
		Records:     []payroll.PayrollRecordResponse{},
	}

	employees = selectEmployees(employees, req.EmployeeIDs, &resp)
	if len(employees) == 0 {
		if len(resp.Skipped) > 0 {
			return resp, nil
		}
		return payroll.GeneratePayrollResponse{}, payroll.ErrNoEligibleEmployees
	}

	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	components, err := s.payrollRepo.ActiveComponentsForEmployees(ctx, c.ID, ids, periodEnd)
	if err != nil {
		return payroll.GeneratePayrollResponse{}, fmt.Errorf("failed to get employee components: %w", err)
	}

	workDays := leave.CountWorkingDays(periodStart, periodEnd)
	var created []payroll.PayrollRecord

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, emp := range employees {
			if !emp.BasicSalary.IsPositive() {
				resp.Skipped = append(resp.Skipped, skipped(emp, "basic salary is not set"))
				continue
			}
			exists, err := s.payrollRepo.ExistsForPeriod(ctx, emp.ID, req.PeriodMonth, req.PeriodYear)
			if err != nil {
				return fmt.Errorf("failed to check existing payroll record: %w", err)
			}
			if exists {
				resp.Skipped = append(resp.Skipped, skipped(emp, "payroll already generated for this period"))
				continue
			}

			summary, err := s.attendanceRepo.SummaryForPeriod(ctx, emp.ID, periodStart, periodEnd)
			if err != nil {
				return fmt.Errorf("failed to get attendance summary for employee %s: %w", emp.ID, err)
			}

			allowances, deductions := payroll.SplitComponents(components[emp.ID])
			breakdown := payroll.Calculate(payroll.CalculationInput{
				BasicSalary: emp.BasicSalary,
				Allowances:  allowances,
				Deductions:  deductions,
				Settings:    settings,
				WorkDays:    workDays,
				AbsentDays:  summary.Absent,
				LateMinutes: summary.LateMinutes,
				Currency:    c.Currency,
			})

			record, err := s.payrollRepo.CreatePayrollRecord(ctx, payroll.PayrollRecord{
				EmployeeID:       emp.ID,
				CompanyID:        c.ID,
				PeriodMonth:      req.PeriodMonth,
				PeriodYear:       req.PeriodYear,
				Currency:         c.Currency,
				BasicSalary:      currency.Round(emp.BasicSalary, c.Currency),
				Allowances:       allowances,
				Deductions:       deductions,
				TotalAllowances:  breakdown.TotalAllowances,
				TotalDeductions:  breakdown.TotalDeductions,
				WorkDays:         workDays,
				PresentDays:      summary.Attended(),
				AbsentDays:       summary.Absent,
				LateMinutes:      summary.LateMinutes,
				LateDeduction:    breakdown.LateDeduction,
				AbsenceDeduction: breakdown.AbsenceDeduction,
				GrossSalary:      breakdown.GrossSalary,
				NetSalary:        breakdown.NetSalary,
				Status:           payroll.PayrollStatusPending,
				EmployeeName:     emp.FullName,
				EmployeeCode:     emp.EmployeeCode,
				EmployeeUserID:   emp.UserID,
				Department:       emp.Department,
				Position:         emp.Position,
			})
			if err != nil {
				if errors.Is(err, payroll.ErrPayrollRecordAlreadyExists) {
					resp.Skipped = append(resp.Skipped, skipped(emp, "payroll already generated for this period"))
					continue
				}
				return fmt.Errorf("failed to create payroll record for employee %s: %w", emp.ID, err)
			}
			created = append(created, record)
		}
		return nil
	})
	if err != nil {
		return payroll.GeneratePayrollResponse{}, err
	}

	for _, r := range created {
		resp.Records = append(resp.Records, toRecordResponse(r))
	}
	resp.Generated = len(created)

	slog.Info("payroll generated",
		"company_id", c.ID,
		"period", periodStart.Format("2006-01"),
		"generated", resp.Generated,
		"skipped", len(resp.Skipped),
	)
	if resp.Generated > 0 {
		events.PublishAsync(s.publisher, events.New(events.PayrollGenerated, c.ID, c.ID, map[string]any{
			"month":     req.PeriodMonth,
			"year":      req.PeriodYear,
			"generated": resp.Generated,
		}))
	}
	return resp, nil
}

// selectEmployees narrows the active employees to the requested ids. Requested
// ids that are not active employees of the company are reported as skipped.
func selectEmployees(active []employee.Employee, requested []string, resp *payroll.GeneratePayrollResponse) []employee.Employee {
	if len(requested) == 0 {
		return active
	}

	byID := make(map[string]employee.Employee, len(active))
	for _, e := range active {
		byID[e.ID] = e
	}

	seen := make(map[string]bool, len(requested))
	out := make([]employee.Employee, 0, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		e, ok := byID[id]
		if !ok {
			resp.Skipped = append(resp.Skipped, payroll.SkippedEmployee{EmployeeID: id, Reason: "not an active employee"})
			continue
		}
		out = append(out, e)
	}
	return out
}

func skipped(e employee.Employee, reason string) payroll.SkippedEmployee {
	return payroll.SkippedEmployee{EmployeeID: e.ID, EmployeeName: e.FullName, Reason: reason}
}

// ========== RECORDS ==========

func (s *PayrollServiceImpl) List(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	records, total, err := s.payrollRepo.ListPayrollRecords(ctx, claims.CompanyID, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, fmt.Errorf("failed to list payroll records: %w", err)
	}

	return payroll.ListPayrollRecordResponse{
		Data:       toRecordResponses(records),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}, nil
}

func (s *PayrollServiceImpl) Get(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.payrollRepo.GetPayrollRecordByID(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return toRecordResponse(record), nil
}

// transition moves a record to the next status inside one transaction.
// apply sets the status-specific fields.
func (s *PayrollServiceImpl) transition(ctx context.Context, id string, to payroll.PayrollStatus, apply func(r *payroll.PayrollRecord, claims jwt.Claims)) (payroll.PayrollRecord, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	var record payroll.PayrollRecord
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err = s.payrollRepo.GetPayrollRecordByID(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}
		from := record.Status
		if !payroll.CanTransition(from, to) {
			return payroll.ErrInvalidStatusTransition
		}
		record.Status = to
		apply(&record, claims)
		return s.payrollRepo.UpdatePayrollStatus(ctx, record, from)
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	return record, nil
}

func (s *PayrollServiceImpl) Approve(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	record, err := s.transition(ctx, id, payroll.PayrollStatusApproved, func(r *payroll.PayrollRecord, claims jwt.Claims) {
		now := s.now().UTC()
		r.ApprovedBy = &claims.UserID
		r.ApprovedAt = &now
		r.RejectionReason = nil
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	s.notifyEmployee(ctx, record, notification.TypePayrollApproved, "Payslip available",
		fmt.Sprintf("Your payslip for %s is available.", record.Period().Format("January 2006")))
	events.PublishAsync(s.publisher, events.New(events.PayrollApproved, record.ID, record.CompanyID, recordEvent(record)))
	return toRecordResponse(record), nil
}

func (s *PayrollServiceImpl) Reject(ctx context.Context, id string, req payroll.RejectPayrollRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.transition(ctx, id, payroll.PayrollStatusRejected, func(r *payroll.PayrollRecord, _ jwt.Claims) {
		reason := req.Reason
		r.RejectionReason = &reason
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	events.PublishAsync(s.publisher, events.New(events.PayrollRejected, record.ID, record.CompanyID, recordEvent(record)))
	return toRecordResponse(record), nil
}

func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	record, err := s.transition(ctx, id, payroll.PayrollStatusPaid, func(r *payroll.PayrollRecord, claims jwt.Claims) {
		now := s.now().UTC()
		r.PaidBy = &claims.UserID
		r.PaidAt = &now
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	s.notifyEmployee(ctx, record, notification.TypePayrollPaid, "Salary paid",
		fmt.Sprintf("Your salary of %s for %s has been paid.",
			currency.Format(record.NetSalary, record.Currency),
			record.Period().Format("January 2006")))
	events.PublishAsync(s.publisher, events.New(events.PayrollPaid, record.ID, record.CompanyID, recordEvent(record)))
	return toRecordResponse(record), nil
}

func (s *PayrollServiceImpl) Delete(ctx context.Context, id string) error {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	record, err := s.payrollRepo.GetPayrollRecordByID(ctx, id, claims.CompanyID)
	if err != nil {
		return err
	}
	if record.Status == payroll.PayrollStatusPaid {
		return payroll.ErrCannotDeletePaidRecord
	}
	return s.payrollRepo.DeletePayrollRecord(ctx, id, claims.CompanyID)
}

func (s *PayrollServiceImpl) Summary(ctx context.Context, month, year int) (payroll.PayrollSummaryResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return payroll.PayrollSummaryResponse{}, payroll.ErrInvalidPeriod
	}

	summary, err := s.payrollRepo.GetPayrollSummary(ctx, claims.CompanyID, month, year)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, fmt.Errorf("failed to get payroll summary: %w", err)
	}
	if summary.Currency == "" {
		c, err := s.companyRepo.GetByID(ctx, claims.CompanyID)
		if err != nil {
			return payroll.PayrollSummaryResponse{}, fmt.Errorf("failed to get company: %w", err)
		}
		summary.Currency = c.Currency
	}
	summary.PeriodMonth = month
	summary.PeriodYear = year
	return summary, nil
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) self(ctx context.Context) (employee.Employee, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	if claims.Role != user.RoleEmployee {
		return employee.Employee{}, employee.ErrEmployeeProfileOnly
	}
	return s.employeeRepo.GetByUserID(ctx, claims.UserID)
}

func (s *PayrollServiceImpl) ListMyPayslips(ctx context.Context, year *int) ([]payroll.PayrollRecordResponse, error) {
	emp, err := s.self(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.payrollRepo.ListEmployeePayslips(ctx, emp.ID, year,
		[]payroll.PayrollStatus{payroll.PayrollStatusApproved, payroll.PayrollStatusPaid})
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	return toRecordResponses(records), nil
}

func (s *PayrollServiceImpl) myPayslip(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	emp, err := s.self(ctx)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	record, err := s.payrollRepo.GetEmployeePayslip(ctx, emp.ID, id)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			return payroll.PayrollRecord{}, payroll.ErrPayslipNotFound
		}
		return payroll.PayrollRecord{}, err
	}
	if !record.Status.VisibleToEmployee() {
		return payroll.PayrollRecord{}, payroll.ErrPayslipNotFound
	}
	return record, nil
}

func (s *PayrollServiceImpl) GetMyPayslip(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	record, err := s.myPayslip(ctx, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return toRecordResponse(record), nil
}

// ========== HELPERS ==========

func (s *PayrollServiceImpl) notifyEmployee(ctx context.Context, r payroll.PayrollRecord, t notification.NotificationType, title, message string) {
	if s.notifier == nil || r.EmployeeUserID == "" {
		return
	}
	companyID := r.CompanyID
	err := s.notifier.Notify(ctx, notification.NotifyRequest{
		CompanyID:   &companyID,
		RecipientID: r.EmployeeUserID,
		Type:        t,
		Title:       title,
		Message:     message,
		Data: map[string]interface{}{
			"payroll_id": r.ID,
			"month":      r.PeriodMonth,
			"year":       r.PeriodYear,
		},
	})
	if err != nil {
		slog.Warn("failed to queue payroll notification", "payroll_id", r.ID, "type", t, "error", err)
	}
}

func recordEvent(r payroll.PayrollRecord) map[string]any {
	return map[string]any{
		"payroll_id":  r.ID,
		"employee_id": r.EmployeeID,
		"month":       r.PeriodMonth,
		"year":        r.PeriodYear,
		"status":      string(r.Status),
		"net_salary":  r.NetSalary.StringFixed(2),
		"currency":    r.Currency,
	}
}

func toSettingsResponse(s payroll.PayrollSettings) payroll.PayrollSettingsResponse {
	return payroll.PayrollSettingsResponse{
		CompanyID:               s.CompanyID,
		LateDeductionEnabled:    s.LateDeductionEnabled,
		LateDeductionPerMinute:  s.LateDeductionPerMinute,
		AbsenceDeductionEnabled: s.AbsenceDeductionEnabled,
		WorkingDaysPerMonth:     s.WorkingDaysPerMonth,
	}
}

func toRecordResponse(r payroll.PayrollRecord) payroll.PayrollRecordResponse {
	return payroll.PayrollRecordResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.EmployeeName,
		EmployeeCode:     r.EmployeeCode,
		Department:       r.Department,
		Position:         r.Position,
		PeriodMonth:      r.PeriodMonth,
		PeriodYear:       r.PeriodYear,
		Currency:         r.Currency,
		BasicSalary:      r.BasicSalary,
		Allowances:       nonNil(r.Allowances),
		Deductions:       nonNil(r.Deductions),
		TotalAllowances:  r.TotalAllowances,
		TotalDeductions:  r.TotalDeductions,
		WorkDays:         r.WorkDays,
		PresentDays:      r.PresentDays,
		AbsentDays:       r.AbsentDays,
		LateMinutes:      r.LateMinutes,
		LateDeduction:    r.LateDeduction,
		AbsenceDeduction: r.AbsenceDeduction,
		GrossSalary:      r.GrossSalary,
		NetSalary:        r.NetSalary,
		NetSalaryDisplay: currency.Format(r.NetSalary, r.Currency),
		Status:           string(r.Status),
		RejectionReason:  r.RejectionReason,
		ApprovedAt:       formatTime(r.ApprovedAt),
		PaidAt:           formatTime(r.PaidAt),
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}

func toRecordResponses(records []payroll.PayrollRecord) []payroll.PayrollRecordResponse {
	result := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, toRecordResponse(r))
	}
	return result
}

func nonNil(lines []payroll.Line) []payroll.Line {
	if lines == nil {
		return []payroll.Line{}
	}
	return lines
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
