package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/auth"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/repository/postgresql"
)

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.users.GetByEmail(ctx, "OWNER@acme.test")
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, got.ID)
	assert.Equal(t, user.RoleClient, got.Role)

	_, err = f.users.Create(ctx, user.User{Name: "Dup", Email: "Owner@Acme.test", Role: user.RoleClient})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)
}

func TestUserRepository_SoftDeleteHidesUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, "ann@acme.test", "EMP-0001")

	u, err := f.users.GetByEmail(ctx, "ann@acme.test")
	require.NoError(t, err)
	require.NotNil(t, u.EmployeeID)
	assert.Equal(t, e.ID, *u.EmployeeID)

	require.NoError(t, f.users.SoftDelete(ctx, u.ID))
	_, err = f.users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestCompanyRepository_JoinCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.companies.GetByJoinCode(ctx, "acme2025")
	require.NoError(t, err)
	assert.Equal(t, f.company.ID, got.ID)

	err = f.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := f.companies.Create(ctx, company.Company{
			Name:        "Copycat",
			JoinCode:    "ACME2025",
			OwnerUserID: f.owner.ID,
			Currency:    "USD",
			Timezone:    "UTC",
		})
		return err
	})
	assert.ErrorIs(t, err, company.ErrJoinCodeExists)
}

func TestEmployeeRepository_NextEmployeeCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(f.db)

	code, err := repo.NextEmployeeCode(ctx, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, "EMP-0001", code)

	f.addEmployee(t, "ann@acme.test", code)
	code, err = repo.NextEmployeeCode(ctx, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, "EMP-0002", code)
}

func TestAttendanceRepository_OneRowPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, "ann@acme.test", "EMP-0001")
	repo := postgresql.NewAttendanceRepository(f.db)

	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	checkIn := day.Add(9*time.Hour + 20*time.Minute)
	_, err := repo.Create(ctx, attendance.Attendance{
		CompanyID:   f.company.ID,
		EmployeeID:  e.ID,
		Date:        day,
		CheckIn:     &checkIn,
		Status:      attendance.StatusLate,
		LateMinutes: 20,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, attendance.Attendance{
		CompanyID:  f.company.ID,
		EmployeeID: e.ID,
		Date:       day,
		Status:     attendance.StatusAbsent,
	})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	summary, err := repo.SummaryForPeriod(ctx, e.ID, day, day.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Late)
	assert.Equal(t, 20, summary.LateMinutes)

	missing, err := repo.EmployeesWithoutRecord(ctx, f.company.ID, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, e.ID, missing[0].EmployeeID)

	missing, err = repo.EmployeesWithoutRecord(ctx, f.company.ID, day)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLeaveQuotaRepository_Balance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, "ann@acme.test", "EMP-0001")
	repo := postgresql.NewLeaveQuotaRepository(f.db)

	q, err := repo.GetOrCreate(ctx, e.ID, leave.LeaveTypeAnnual, 2025, 12)
	require.NoError(t, err)
	again, err := repo.GetOrCreate(ctx, e.ID, leave.LeaveTypeAnnual, 2025, 99)
	require.NoError(t, err)
	assert.Equal(t, q.ID, again.ID)
	assert.Equal(t, 12, again.EntitledQuota)

	require.NoError(t, repo.AddPendingQuota(ctx, q.ID, 10))
	assert.ErrorIs(t, repo.AddPendingQuota(ctx, q.ID, 3), leave.ErrInsufficientQuota)

	require.NoError(t, repo.MovePendingToUsed(ctx, q.ID, 10))
	quotas, err := repo.ListByEmployeeYear(ctx, e.ID, 2025)
	require.NoError(t, err)
	require.Len(t, quotas, 1)
	assert.Equal(t, 10, quotas[0].UsedQuota)
	assert.Equal(t, 0, quotas[0].PendingQuota)
	assert.Equal(t, 2, quotas[0].Available())
}

func TestPayrollRepository_DuplicatePeriodKeepsTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, "ann@acme.test", "EMP-0001")
	repo := postgresql.NewPayrollRepository(f.db)

	record := payroll.PayrollRecord{
		EmployeeID:  e.ID,
		CompanyID:   f.company.ID,
		PeriodMonth: 3,
		PeriodYear:  2025,
		Currency:    "USD",
		BasicSalary: decimal.NewFromInt(5000),
		Allowances:  []payroll.Line{{Name: "Transport", Amount: decimal.NewFromInt(200)}},
		GrossSalary: decimal.NewFromInt(5200),
		NetSalary:   decimal.NewFromInt(5200),
		Status:      payroll.PayrollStatusPending,
	}

	err := f.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.CreatePayrollRecord(ctx, record); err != nil {
			return err
		}
		_, err := repo.CreatePayrollRecord(ctx, record)
		assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyExists)

		exists, err := repo.ExistsForPeriod(ctx, e.ID, 3, 2025)
		if err != nil {
			return err
		}
		assert.True(t, exists)
		return nil
	})
	require.NoError(t, err)

	records, total, err := repo.ListPayrollRecords(ctx, f.company.ID, payroll.PayrollFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	require.Len(t, records[0].Allowances, 1)
	assert.Equal(t, "Transport", records[0].Allowances[0].Name)
	assert.Equal(t, "EMP-0001", records[0].EmployeeCode)

	summary, err := repo.GetPayrollSummary(ctx, f.company.ID, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalEmployees)
	assert.Equal(t, 1, summary.PendingCount)
	assert.True(t, summary.TotalNetSalary.Equal(decimal.NewFromInt(5200)))
}

func TestInvoiceRepository_SequenceAndDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addContractor(t, "carl@acme.test")
	repo := postgresql.NewInvoiceRepository(f.db)

	first, err := repo.NextSequence(ctx, c.ID)
	require.NoError(t, err)
	second, err := repo.NextSequence(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []invoice.LineItem{{
		Description: "Design",
		Hours:       decimal.NewFromInt(11),
		Rate:        decimal.NewFromInt(60),
		Amount:      decimal.NewFromInt(660),
	}}
	inv, err := repo.Create(ctx, invoice.Invoice{
		CompanyID:    f.company.ID,
		ContractorID: c.ID,
		Number:       "INV-202503-0001",
		PeriodStart:  start,
		PeriodEnd:    start.AddDate(0, 1, -1),
		Items:        items,
		Total:        decimal.NewFromInt(660),
		Currency:     "USD",
		Status:       invoice.StatusDraft,
	})
	require.NoError(t, err)

	_, total, err := repo.List(ctx, invoice.InvoiceFilter{CompanyID: f.company.ID, ExcludeDraft: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	now := time.Now()
	inv.Status = invoice.StatusSubmitted
	inv.SubmittedAt = &now
	require.NoError(t, repo.UpdateStatus(ctx, inv))

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusSubmitted, got.Status)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Amount.Equal(decimal.NewFromInt(660)))

	n, err := repo.CountSubmitted(ctx, f.company.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestNotificationRepository_BatchAndRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := postgresql.NewNotificationRepository(f.db)

	batch := []*notification.Notification{
		{RecipientID: f.owner.ID, Type: notification.TypeInvoiceSubmitted, Title: "a", Message: "a", CreatedAt: time.Now()},
		{RecipientID: f.owner.ID, Type: notification.TypeLeaveRequest, Title: "b", Message: "b", CreatedAt: time.Now()},
	}
	require.NoError(t, repo.InsertMany(ctx, batch))

	count, err := repo.CountUnread(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	updated, err := repo.MarkRead(ctx, f.owner.ID, []string{batch[0].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	updated, err = repo.MarkRead(ctx, f.owner.ID, []string{batch[0].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)

	list, total, err := repo.ListByRecipient(ctx, f.owner.ID, notification.ListFilter{Page: 1, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, batch[1].ID, list[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, "00000000-0000-0000-0000-000000000000", batch[1].ID), notification.ErrNotificationNotFound)
	require.NoError(t, repo.Delete(ctx, f.owner.ID, batch[1].ID))

	_, err = repo.FindPreference(ctx, f.owner.ID, notification.TypeLeaveRequest)
	assert.ErrorIs(t, err, notification.ErrPreferenceNotFound)
}

func TestRefreshTokenRepository_Revocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := postgresql.NewRefreshTokenRepository(f.db)

	exp := time.Now().Add(time.Hour).Unix()
	require.NoError(t, repo.CreateRefreshToken(ctx, f.owner.ID, "token-a", exp, auth.SessionTrackingRequest{UserAgent: "test"}))
	require.NoError(t, repo.CreateRefreshToken(ctx, f.owner.ID, "token-b", exp, auth.SessionTrackingRequest{}))

	revoked, err := repo.IsRefreshTokenRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = repo.IsRefreshTokenRevoked(ctx, "never-issued")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, repo.RevokeAllForUser(ctx, f.owner.ID))
	revoked, err = repo.IsRefreshTokenRevoked(ctx, "token-b")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestPayrollRepository_StatusUpdateRequiresExpectedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, "ann@acme.test", "EMP-0001")
	repo := postgresql.NewPayrollRepository(f.db)

	record, err := repo.CreatePayrollRecord(ctx, payroll.PayrollRecord{
		EmployeeID:  e.ID,
		CompanyID:   f.company.ID,
		PeriodMonth: 4,
		PeriodYear:  2025,
		Currency:    "USD",
		BasicSalary: decimal.NewFromInt(5000),
		GrossSalary: decimal.NewFromInt(5000),
		NetSalary:   decimal.NewFromInt(5000),
		Status:      payroll.PayrollStatusPending,
	})
	require.NoError(t, err)

	approved := record
	approved.Status = payroll.PayrollStatusApproved
	require.NoError(t, repo.UpdatePayrollStatus(ctx, approved, payroll.PayrollStatusPending))

	// A second writer that also read "pending" must not overwrite the approval.
	reason := "wrong amount"
	rejected := record
	rejected.Status = payroll.PayrollStatusRejected
	rejected.RejectionReason = &reason
	err = repo.UpdatePayrollStatus(ctx, rejected, payroll.PayrollStatusPending)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	stored, err := repo.GetPayrollRecordByID(ctx, record.ID, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusApproved, stored.Status)
	assert.Nil(t, stored.RejectionReason)
}

func TestAttendanceRepository_ApprovedLeaveIsNotAbsence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	onLeave := f.addEmployee(t, "ann@acme.test", "EMP-0001")
	pending := f.addEmployee(t, "bob@acme.test", "EMP-0002")
	leaves := postgresql.NewLeaveRequestRepository(f.db)

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	for _, lr := range []leave.LeaveRequest{
		{EmployeeID: onLeave.ID, Status: leave.RequestStatusApproved},
		{EmployeeID: pending.ID, Status: leave.RequestStatusPending},
	} {
		lr.CompanyID = f.company.ID
		lr.LeaveType = leave.LeaveTypeAnnual
		lr.StartDate = start
		lr.EndDate = end
		lr.WorkingDays = 3
		lr.Reason = "family trip"
		_, err := leaves.Create(ctx, lr)
		require.NoError(t, err)
	}

	repo := postgresql.NewAttendanceRepository(f.db)

	missing, err := repo.EmployeesWithoutRecord(ctx, f.company.ID, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, pending.ID, missing[0].EmployeeID)

	missing, err = repo.EmployeesWithoutRecord(ctx, f.company.ID, end.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, missing, 2)
}
