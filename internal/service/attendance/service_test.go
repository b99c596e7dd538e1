package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

type fakeAttendanceRepo struct {
	attendance.AttendanceRepository
	rows      []attendance.Attendance
	absentees []attendance.Absentee
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	a.ID = "att-" + a.EmployeeID + "-" + a.Date.Format("0102")
	f.rows = append(f.rows, a)
	return a, nil
}

func (f *fakeAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	for _, r := range f.rows {
		if r.EmployeeID == employeeID && r.Date.Equal(date) {
			return r, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) GetByID(ctx context.Context, companyID, id string) (attendance.Attendance, error) {
	for _, r := range f.rows {
		if r.ID == id && r.CompanyID == companyID {
			return r, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) Update(ctx context.Context, a attendance.Attendance) error {
	for i, r := range f.rows {
		if r.ID == a.ID {
			f.rows[i] = a
			return nil
		}
	}
	return attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) EmployeesWithoutRecord(ctx context.Context, companyID string, date time.Time) ([]attendance.Absentee, error) {
	var out []attendance.Absentee
	for _, a := range f.absentees {
		if _, err := f.GetByEmployeeAndDate(ctx, a.EmployeeID, date); err != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	emp employee.Employee
}

func (f *fakeEmployeeRepo) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	if userID != f.emp.UserID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return f.emp, nil
}

type fakeCompanyRepo struct {
	company.CompanyRepository
	c company.Company
}

func (f *fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	return f.c, nil
}

func (f *fakeCompanyRepo) ListAll(ctx context.Context) ([]company.Company, error) {
	return []company.Company{f.c}, nil
}

type fakeNotifier struct {
	notification.Service
	queued []notification.NotifyRequest
}

func (f *fakeNotifier) NotifyMany(ctx context.Context, reqs []notification.NotifyRequest) error {
	f.queued = append(f.queued, reqs...)
	return nil
}

type fixture struct {
	svc      *AttendanceServiceImpl
	repo     *fakeAttendanceRepo
	notifier *fakeNotifier
	ctx      context.Context
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	repo := &fakeAttendanceRepo{}
	notifier := &fakeNotifier{}
	svc := NewAttendanceService(
		repo,
		&fakeEmployeeRepo{emp: employee.Employee{ID: "emp-1", UserID: "u-1", CompanyID: "co-1", EmploymentStatus: employee.EmploymentStatusActive}},
		&fakeCompanyRepo{c: company.Company{
			ID:               "co-1",
			WorkStartTime:    "09:00",
			WorkEndTime:      "17:00",
			LateGraceMinutes: 10,
			Timezone:         "UTC",
		}},
		notifier,
		nil,
	).(*AttendanceServiceImpl)
	svc.now = func() time.Time { return now }

	companyID := "co-1"
	ctx, err := jwt.NewContext(context.Background(),
		jwt.NewJWTService("test-secret-key-for-jwt", "1h", "24h", false),
		jwt.Identity{UserID: "u-1", Role: user.RoleEmployee, CompanyID: &companyID},
	)
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, notifier: notifier, ctx: ctx}
}

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func TestCheckIn_LateAfterGrace(t *testing.T) {
	f := newFixture(t, monday.Add(9*time.Hour+25*time.Minute))

	resp, err := f.svc.CheckIn(f.ctx, attendance.CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, "late", resp.Status)
	assert.Equal(t, 25, resp.LateMinutes)
	assert.Equal(t, "2025-03-03", resp.Date)

	_, err = f.svc.CheckIn(f.ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestCheckIn_Weekend(t *testing.T) {
	f := newFixture(t, monday.AddDate(0, 0, -1).Add(9*time.Hour))

	_, err := f.svc.CheckIn(f.ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotAWorkday)
}

func TestCheckOut(t *testing.T) {
	f := newFixture(t, monday.Add(9*time.Hour))

	_, err := f.svc.CheckOut(f.ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = f.svc.CheckIn(f.ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return monday.Add(12 * time.Hour) }
	resp, err := f.svc.CheckOut(f.ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "half-day", resp.Status)
	assert.Equal(t, 180, resp.WorkedMinutes)

	_, err = f.svc.CheckOut(f.ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)

	today, err := f.svc.GetToday(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.NotNil(t, today.CheckOut)
}

func TestGetToday_NoRecord(t *testing.T) {
	f := newFixture(t, monday.Add(8*time.Hour))

	today, err := f.svc.GetToday(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, today)
}

func TestCheckIn_RequiresEmployee(t *testing.T) {
	f := newFixture(t, monday.Add(9*time.Hour))
	companyID := "co-1"
	ctx, err := jwt.NewContext(context.Background(),
		jwt.NewJWTService("test-secret-key-for-jwt", "1h", "24h", false),
		jwt.Identity{UserID: "owner", Role: user.RoleClient, CompanyID: &companyID},
	)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrEmployeeRequired)
}

func TestMarkAbsent(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1).Add(1 * time.Hour)
	f := newFixture(t, tuesday)
	f.repo.absentees = []attendance.Absentee{{EmployeeID: "emp-1", UserID: "u-1"}, {EmployeeID: "emp-2", UserID: "u-2"}}
	f.repo.rows = []attendance.Attendance{{ID: "a", EmployeeID: "emp-2", CompanyID: "co-1", Date: monday, Status: attendance.StatusPresent}}

	n, err := f.svc.MarkAbsent(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.notifier.queued, 1)
	assert.Equal(t, "u-1", f.notifier.queued[0].RecipientID)

	n, err = f.svc.MarkAbsent(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Sunday is skipped.
	n, err = f.svc.MarkAbsent(context.Background(), monday.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCorrect_ClearsLateMinutes(t *testing.T) {
	f := newFixture(t, monday.Add(9*time.Hour+30*time.Minute))
	_, err := f.svc.CheckIn(f.ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	status := "present"
	resp, err := f.svc.Correct(f.ctx, f.repo.rows[0].ID, attendance.CorrectAttendanceRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "present", resp.Status)
	assert.Zero(t, resp.LateMinutes)
}
