package postgresql_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
	"github.com/workpay-hr/payroll-backend-go/internal/repository/postgresql"
)

// newTestDB connects to TEST_DATABASE_URL, which must point at a database
// migrated with migrations/. Tests are skipped when it is not set.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	truncate(t, db)
	return db
}

func truncate(t *testing.T, db *database.DB) {
	t.Helper()

	tables := []string{
		"notification_preferences",
		"notifications",
		"invoices",
		"invoice_sequences",
		"leave_requests",
		"leave_quotas",
		"payroll_records",
		"employee_payroll_components",
		"payroll_components",
		"payroll_settings",
		"attendances",
		"contractors",
		"employees",
		"refresh_tokens",
		"users",
		"companies",
	}
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE")
	require.NoError(t, err)
}

type fixture struct {
	db        *database.DB
	tx        database.Transactor
	users     user.UserRepository
	companies company.CompanyRepository
	company   company.Company
	owner     user.User
}

// newFixture creates a client and the organization it owns.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	f := &fixture{
		db:        db,
		tx:        postgresql.NewTransactor(db),
		users:     postgresql.NewUserRepository(db),
		companies: postgresql.NewCompanyRepository(db),
	}

	companyID := uuid.NewString()
	err := f.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		owner, err := f.users.Create(ctx, user.User{
			CompanyID: &companyID,
			Name:      "Olivia Owner",
			Email:     "owner@acme.test",
			Role:      user.RoleClient,
		})
		if err != nil {
			return err
		}
		f.owner = owner

		f.company, err = f.companies.Create(ctx, company.Company{
			ID:               companyID,
			Name:             "Acme",
			JoinCode:         "ACME2025",
			OwnerUserID:      owner.ID,
			WorkStartTime:    "09:00",
			WorkEndTime:      "17:00",
			LateGraceMinutes: 10,
			Currency:         "USD",
			Timezone:         "UTC",
		})
		return err
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) addEmployee(t *testing.T, email, code string) employee.Employee {
	t.Helper()
	ctx := context.Background()

	u, err := f.users.Create(ctx, user.User{
		CompanyID: &f.company.ID,
		Name:      "Emp " + code,
		Email:     email,
		Role:      user.RoleEmployee,
	})
	require.NoError(t, err)

	e, err := postgresql.NewEmployeeRepository(f.db).Create(ctx, employee.Employee{
		UserID:           u.ID,
		CompanyID:        f.company.ID,
		EmployeeCode:     code,
		EmploymentType:   employee.EmploymentTypePermanent,
		EmploymentStatus: employee.EmploymentStatusActive,
		BasicSalary:      decimal.NewFromInt(5000),
		HireDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) addContractor(t *testing.T, email string) contractor.Contractor {
	t.Helper()
	ctx := context.Background()

	u, err := f.users.Create(ctx, user.User{
		CompanyID: &f.company.ID,
		Name:      "Carl Contractor",
		Email:     email,
		Role:      user.RoleContractor,
	})
	require.NoError(t, err)

	c, err := postgresql.NewContractorRepository(f.db).Create(ctx, contractor.Contractor{
		UserID:     u.ID,
		CompanyID:  f.company.ID,
		HourlyRate: decimal.NewFromInt(60),
		Currency:   "USD",
		Status:     contractor.StatusActive,
	})
	require.NoError(t, err)
	return c
}
