package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/dashboard"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/currency"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	newWindow   = 30 * 24 * time.Hour
	loadTimeout = 15 * time.Second
)

type Deps struct {
	Dashboard     dashboard.DashboardRepository
	Companies     company.CompanyRepository
	Contractors   contractor.ContractorRepository
	Attendance    attendance.AttendanceRepository
	LeaveRequests leave.LeaveRequestRepository
	Invoices      invoice.InvoiceRepository

	AttendanceService attendance.AttendanceService
	LeaveService      leave.LeaveService
	PayrollService    payroll.PayrollService
	InvoiceService    invoice.InvoiceService
}

type DashboardServiceImpl struct {
	Deps
	group singleflight.Group
	now   func() time.Time
}

func NewDashboardService(d Deps) dashboard.DashboardService {
	return &DashboardServiceImpl{Deps: d, now: time.Now}
}

// load collapses concurrent identical dashboard loads into one. The shared
// load runs detached from the first caller's cancellation, bounded by
// loadTimeout, so one disconnecting client does not fail the others.
func load[T any](s *DashboardServiceImpl, ctx context.Context, key string, fn func(ctx context.Context) (*T, error)) (*T, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return fn(shared)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *DashboardServiceImpl) GetAdminDashboard(ctx context.Context) (*dashboard.AdminDashboardResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if claims.Role != user.RoleAdmin {
		return nil, user.ErrInsufficientPermissions
	}

	return load(s, ctx, "admin", func(ctx context.Context) (*dashboard.AdminDashboardResponse, error) {
		stats, err := s.Dashboard.GetPlatformStats(ctx, s.now().Add(-newWindow))
		if err != nil {
			return nil, fmt.Errorf("failed to get platform stats: %w", err)
		}

		byRole := make(map[string]int64, len(user.AllRoles))
		var total int64
		for _, r := range user.AllRoles {
			n := stats.UsersByRole[string(r)]
			byRole[string(r)] = n
			total += n
		}

		return &dashboard.AdminDashboardResponse{
			Role:         string(user.RoleAdmin),
			UsersByRole:  byRole,
			TotalUsers:   total,
			NewUsers30d:  stats.NewUsers,
			DeletedUsers: stats.DeletedUsers,
			Companies:    stats.Companies,
		}, nil
	})
}

// GetClientDashboard returns the organization overview. Each figure is one
// query and they run in parallel.
func (s *DashboardServiceImpl) GetClientDashboard(ctx context.Context) (*dashboard.ClientDashboardResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if claims.Role != user.RoleClient {
		return nil, user.ErrInsufficientPermissions
	}

	return load(s, ctx, "client:"+claims.CompanyID, func(ctx context.Context) (*dashboard.ClientDashboardResponse, error) {
		co, err := s.Companies.GetByID(ctx, claims.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to get company: %w", err)
		}
		now := s.now().In(co.Location())
		today := attendance.DateOf(now)

		var (
			summary     *dashboard.EmployeeSummaryStats
			types       *dashboard.EmployeeTypeStats
			contractors int64
			byStatus    map[attendance.Status]int64
			pendLeave   int64
			pendInvoice int64
			payrollSum  payroll.PayrollSummaryResponse
		)

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var err error
			summary, err = s.Dashboard.GetEmployeeSummary(gCtx, claims.CompanyID, s.now().Add(-newWindow))
			return err
		})
		g.Go(func() error {
			var err error
			types, err = s.Dashboard.GetEmployeeTypeStats(gCtx, claims.CompanyID)
			return err
		})
		g.Go(func() error {
			var err error
			contractors, err = s.Contractors.CountActive(gCtx, claims.CompanyID)
			return err
		})
		g.Go(func() error {
			var err error
			byStatus, err = s.Attendance.CountByStatusOnDate(gCtx, claims.CompanyID, today)
			return err
		})
		g.Go(func() error {
			var err error
			pendLeave, err = s.LeaveRequests.CountPending(gCtx, claims.CompanyID)
			return err
		})
		g.Go(func() error {
			var err error
			pendInvoice, err = s.Invoices.CountSubmitted(gCtx, claims.CompanyID)
			return err
		})
		g.Go(func() error {
			var err error
			payrollSum, err = s.PayrollService.Summary(gCtx, int(now.Month()), now.Year())
			return err
		})

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to load client dashboard: %w", err)
		}

		employees := dashboard.EmployeeSummaryResponse{
			TotalEmployee:    summary.Total,
			NewEmployee:      summary.New,
			ActiveEmployee:   summary.Active,
			InactiveEmployee: summary.Inactive,
		}
		employmentTypes := dashboard.EmployeeStatusStatsResponse{
			Permanent:  types.Permanent,
			Probation:  types.Probation,
			Contract:   types.Contract,
			Internship: types.Internship,
		}

		return &dashboard.ClientDashboardResponse{
			Role:               string(user.RoleClient),
			EmployeeSummary:    employees,
			EmployeeStatus:     employmentTypes,
			ActiveContractors:  contractors,
			TodayAttendance:    attendanceStats(byStatus, summary.Active, today),
			PendingLeave:       pendLeave,
			PendingInvoices:    pendInvoice,
			CurrentPayroll:     payrollSum,
			CurrentPayrollText: currency.Format(payrollSum.TotalNetSalary, payrollSum.Currency),
		}, nil
	})
}

// attendanceStats turns per-status counts into the daily breakdown. Active
// employees without a row yet count as not checked in.
func attendanceStats(byStatus map[attendance.Status]int64, active int64, day time.Time) dashboard.AttendanceStatsResponse {
	stats := dashboard.AttendanceStatsResponse{
		Present: byStatus[attendance.StatusPresent],
		Late:    byStatus[attendance.StatusLate],
		HalfDay: byStatus[attendance.StatusHalfDay],
		Absent:  byStatus[attendance.StatusAbsent],
		Date:    day.Format("2006-01-02"),
	}
	recorded := stats.Present + stats.Late + stats.HalfDay + stats.Absent
	stats.Total = active
	if recorded > active {
		stats.Total = recorded
	}
	stats.NotCheckedIn = stats.Total - recorded

	if stats.Total > 0 {
		stats.PresentPercent = percent(stats.Present+stats.HalfDay, stats.Total)
		stats.LatePercent = percent(stats.Late, stats.Total)
		stats.AbsentPercent = percent(stats.Absent, stats.Total)
	}
	return stats
}

func percent(n, total int64) float64 {
	return float64(n*10000/total) / 100
}

func (s *DashboardServiceImpl) GetEmployeeDashboard(ctx context.Context) (*dashboard.EmployeeDashboardResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if claims.Role != user.RoleEmployee {
		return nil, user.ErrInsufficientPermissions
	}

	return load(s, ctx, "employee:"+claims.UserID, func(ctx context.Context) (*dashboard.EmployeeDashboardResponse, error) {
		var (
			today    *attendance.AttendanceResponse
			balance  []leave.LeaveQuotaResponse
			payslips []payroll.PayrollRecordResponse
		)

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			today, err = s.AttendanceService.GetToday(gCtx)
			return err
		})
		g.Go(func() error {
			var err error
			balance, err = s.LeaveService.GetMyBalance(gCtx, 0)
			return err
		})
		g.Go(func() error {
			var err error
			payslips, err = s.PayrollService.ListMyPayslips(gCtx, nil)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to load employee dashboard: %w", err)
		}

		return &dashboard.EmployeeDashboardResponse{
			Role:            string(user.RoleEmployee),
			TodayAttendance: today,
			LeaveBalance:    balance,
			LatestPayslip:   latest(payslips),
		}, nil
	})
}

// latest picks the payslip with the most recent period.
func latest(payslips []payroll.PayrollRecordResponse) *payroll.PayrollRecordResponse {
	var best *payroll.PayrollRecordResponse
	for i := range payslips {
		p := &payslips[i]
		if best == nil || p.PeriodYear*12+p.PeriodMonth > best.PeriodYear*12+best.PeriodMonth {
			best = p
		}
	}
	return best
}

func (s *DashboardServiceImpl) GetContractorDashboard(ctx context.Context) (*dashboard.ContractorDashboardResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return load(s, ctx, "contractor:"+claims.UserID, func(ctx context.Context) (*dashboard.ContractorDashboardResponse, error) {
		inv, err := s.InvoiceService.Dashboard(ctx)
		if err != nil {
			return nil, err
		}
		return &dashboard.ContractorDashboardResponse{
			Role:                        string(user.RoleContractor),
			ContractorDashboardResponse: inv,
		}, nil
	})
}
