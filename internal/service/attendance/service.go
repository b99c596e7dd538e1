package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/events"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	companyRepo    company.CompanyRepository
	notifier       notification.Service
	publisher      events.Publisher
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	companyRepo company.CompanyRepository,
	notifier notification.Service,
	publisher events.Publisher,
) attendance.AttendanceService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		companyRepo:    companyRepo,
		notifier:       notifier,
		publisher:      publisher,
		now:            time.Now,
	}
}

// self resolves the calling employee and the company whose work hours apply.
func (s *AttendanceServiceImpl) self(ctx context.Context) (employee.Employee, company.Company, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return employee.Employee{}, company.Company{}, err
	}
	if claims.Role != user.RoleEmployee {
		return employee.Employee{}, company.Company{}, attendance.ErrEmployeeRequired
	}

	emp, err := s.employeeRepo.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, company.Company{}, attendance.ErrEmployeeRequired
		}
		return employee.Employee{}, company.Company{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive() {
		return employee.Employee{}, company.Company{}, employee.ErrEmployeeInactive
	}

	c, err := s.companyRepo.GetByID(ctx, emp.CompanyID)
	if err != nil {
		return employee.Employee{}, company.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	return emp, c, nil
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	emp, c, err := s.self(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowLocal := s.now().In(c.Location())
	if !attendance.IsWorkday(nowLocal) {
		return attendance.AttendanceResponse{}, attendance.ErrNotAWorkday
	}
	date := attendance.DateOf(nowLocal)

	_, err = s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err == nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check today's attendance: %w", err)
	}

	status, lateMinutes := attendance.CheckInStatus(nowLocal, c.WorkStartOn(nowLocal), c.LateGraceMinutes)
	checkIn := nowLocal.UTC()
	created, err := s.attendanceRepo.Create(ctx, attendance.Attendance{
		CompanyID:        emp.CompanyID,
		EmployeeID:       emp.ID,
		Date:             date,
		CheckIn:          &checkIn,
		CheckInLatitude:  req.Latitude,
		CheckInLongitude: req.Longitude,
		Status:           status,
		LateMinutes:      lateMinutes,
		Notes:            req.Notes,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	events.PublishAsync(s.publisher, events.New(events.AttendanceChecked, emp.ID, emp.CompanyID, map[string]any{
		"attendance_id": created.ID,
		"kind":          "check_in",
		"status":        string(created.Status),
		"late_minutes":  created.LateMinutes,
	}))
	return attendance.ToResponse(created), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	emp, c, err := s.self(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowLocal := s.now().In(c.Location())
	record, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, attendance.DateOf(nowLocal))
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrNotCheckedIn
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	if record.CheckIn == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNotCheckedIn
	}
	if record.CheckOut != nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
	}

	checkOut := nowLocal.UTC()
	record.Status, record.WorkedMinutes = attendance.CheckOutStatus(record.Status, *record.CheckIn, checkOut, c.ShiftMinutes())
	record.CheckOut = &checkOut
	record.CheckOutLatitude = req.Latitude
	record.CheckOutLongitude = req.Longitude
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if err := s.attendanceRepo.Update(ctx, record); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	events.PublishAsync(s.publisher, events.New(events.AttendanceChecked, emp.ID, emp.CompanyID, map[string]any{
		"attendance_id":  record.ID,
		"kind":           "check_out",
		"status":         string(record.Status),
		"worked_minutes": record.WorkedMinutes,
	}))
	return attendance.ToResponse(record), nil
}

// GetToday returns nil when the employee has not checked in today.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context) (*attendance.AttendanceResponse, error) {
	emp, c, err := s.self(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, attendance.DateOf(s.now().In(c.Location())))
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	resp := attendance.ToResponse(record)
	return &resp, nil
}

// GetMyHistory implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyHistory(ctx context.Context, req attendance.MyHistoryRequest) ([]attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	emp, _, err := s.self(ctx)
	if err != nil {
		return nil, err
	}

	from := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	records, err := s.attendanceRepo.ListByEmployee(ctx, emp.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, attendance.ToResponse(r))
	}
	return resp, nil
}

// List implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) List(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	filter.CompanyID = claims.CompanyID

	records, total, err := s.attendanceRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := attendance.ListAttendanceResponse{
		Attendances: make([]attendance.AttendanceResponse, 0, len(records)),
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}
	for _, r := range records {
		resp.Attendances = append(resp.Attendances, attendance.ToResponse(r))
	}
	return resp, nil
}

// Correct lets the organization owner override the derived status or notes.
func (s *AttendanceServiceImpl) Correct(ctx context.Context, id string, req attendance.CorrectAttendanceRequest) (attendance.AttendanceResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.attendanceRepo.GetByID(ctx, claims.CompanyID, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if req.Status != nil {
		record.Status = attendance.Status(*req.Status)
		if record.Status != attendance.StatusLate {
			record.LateMinutes = 0
		}
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if err := s.attendanceRepo.Update(ctx, record); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	slog.Info("attendance corrected", "attendance_id", id, "company_id", claims.CompanyID, "status", record.Status, "by", claims.UserID)
	return attendance.ToResponse(record), nil
}

// MarkAbsent implements attendance.AttendanceService. The day checked is the
// previous local day of every company, so repeated runs are idempotent.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, now time.Time) (int, error) {
	companies, err := s.companyRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list companies: %w", err)
	}

	written := 0
	for _, c := range companies {
		day := now.In(c.Location()).AddDate(0, 0, -1)
		if !attendance.IsWorkday(day) {
			continue
		}
		date := attendance.DateOf(day)

		absentees, err := s.attendanceRepo.EmployeesWithoutRecord(ctx, c.ID, date)
		if err != nil {
			return written, fmt.Errorf("failed to find absentees for company %s: %w", c.ID, err)
		}

		reqs := make([]notification.NotifyRequest, 0, len(absentees))
		for _, a := range absentees {
			if _, err := s.attendanceRepo.Create(ctx, attendance.Attendance{
				CompanyID:  c.ID,
				EmployeeID: a.EmployeeID,
				Date:       date,
				Status:     attendance.StatusAbsent,
			}); err != nil {
				slog.Warn("failed to mark employee absent", "employee_id", a.EmployeeID, "date", date.Format("2006-01-02"), "error", err)
				continue
			}
			written++

			companyID := c.ID
			reqs = append(reqs, notification.NotifyRequest{
				CompanyID:   &companyID,
				RecipientID: a.UserID,
				Type:        notification.TypeAttendanceAbsent,
				Title:       "Marked absent",
				Message:     fmt.Sprintf("No check-in was recorded on %s.", date.Format("Mon, 02 Jan 2006")),
				Data:        map[string]interface{}{"date": date.Format("2006-01-02")},
			})
		}

		if s.notifier != nil && len(reqs) > 0 {
			if err := s.notifier.NotifyMany(ctx, reqs); err != nil {
				slog.Warn("failed to queue absence notifications", "company_id", c.ID, "error", err)
			}
		}
	}
	return written, nil
}
