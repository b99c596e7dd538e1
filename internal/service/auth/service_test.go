package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/auth"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessExp  = "1h"
	testRefreshExp = "24h"
	testSecret     = "test-secret-key-for-jwt"
)

type fakeTransactor struct{ calls int }

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeUserRepo struct {
	user.UserRepository
	byEmail     map[string]user.User
	created     []user.User
	adminExists bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]user.User{}}
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserRepo) ExistsByRole(ctx context.Context, role user.Role) (bool, error) {
	return role == user.RoleAdmin && f.adminExists, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	f.created = append(f.created, u)
	f.byEmail[u.Email] = u
	return u, nil
}

type fakeCompanyRepo struct {
	company.CompanyRepository
	byCode     map[string]company.Company
	created    []company.Company
	collisions int
}

func (f *fakeCompanyRepo) GetByJoinCode(ctx context.Context, code string) (company.Company, error) {
	c, ok := f.byCode[code]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeCompanyRepo) Create(ctx context.Context, c company.Company) (company.Company, error) {
	if f.collisions > 0 {
		f.collisions--
		return company.Company{}, company.ErrJoinCodeExists
	}
	f.created = append(f.created, c)
	return c, nil
}

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	created []employee.Employee
}

func (f *fakeEmployeeRepo) NextEmployeeCode(ctx context.Context, companyID string) (string, error) {
	return "EMP-0001", nil
}

func (f *fakeEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	e.ID = "emp-1"
	f.created = append(f.created, e)
	return e, nil
}

type fakeContractorRepo struct {
	contractor.ContractorRepository
	created []contractor.Contractor
}

func (f *fakeContractorRepo) Create(ctx context.Context, c contractor.Contractor) (contractor.Contractor, error) {
	c.ID = "ctr-1"
	f.created = append(f.created, c)
	return c, nil
}

type fakeTokenRepo struct {
	stored  map[string]string
	revoked map[string]bool
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{stored: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeTokenRepo) CreateRefreshToken(ctx context.Context, userID, token string, expiresAt int64, session auth.SessionTrackingRequest) error {
	f.stored[token] = userID
	return nil
}

func (f *fakeTokenRepo) IsRefreshTokenRevoked(ctx context.Context, token string) (bool, error) {
	_, ok := f.stored[token]
	return !ok || f.revoked[token], nil
}

func (f *fakeTokenRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	f.revoked[token] = true
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return nil
}

type fakeNotifier struct {
	notification.Service
	queued []notification.NotifyRequest
}

func (f *fakeNotifier) Notify(ctx context.Context, req notification.NotifyRequest) error {
	f.queued = append(f.queued, req)
	return nil
}

type fixture struct {
	svc         auth.AuthService
	tx          *fakeTransactor
	users       *fakeUserRepo
	companies   *fakeCompanyRepo
	employees   *fakeEmployeeRepo
	contractors *fakeContractorRepo
	tokens      *fakeTokenRepo
	notifier    *fakeNotifier
	jwt         jwt.Service
}

func newFixture() *fixture {
	f := &fixture{
		tx:    &fakeTransactor{},
		users: newFakeUserRepo(),
		companies: &fakeCompanyRepo{byCode: map[string]company.Company{
			"ACME2025": {ID: "co-1", Name: "Acme", OwnerUserID: "owner-1", Currency: "EUR", Timezone: "Europe/Berlin"},
		}},
		employees:   &fakeEmployeeRepo{},
		contractors: &fakeContractorRepo{},
		tokens:      newFakeTokenRepo(),
		notifier:    &fakeNotifier{},
		jwt:         jwt.NewJWTService(testSecret, testAccessExp, testRefreshExp, false),
	}
	f.svc = NewAuthService(Deps{
		Transactor:    f.tx,
		Users:         f.users,
		Companies:     f.companies,
		Employees:     f.employees,
		Contractors:   f.contractors,
		RefreshTokens: f.tokens,
		JWT:           f.jwt,
		Notifications: f.notifier,
		BcryptCost:    bcrypt.MinCost,
	})
	return f
}

func registerRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Name:            "Ana Souza",
		Email:           "Ana@Example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	}
}

func TestAuthService_Register_Client(t *testing.T) {
	f := newFixture()
	req := registerRequest()
	req.CompanyName = "Souza Studio"
	f.companies.collisions = 1

	resp, err := f.svc.Register(context.Background(), user.RoleClient, req, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, "client", resp.User.Role)
	assert.Equal(t, 1, f.tx.calls)

	require.Len(t, f.companies.created, 1)
	c := f.companies.created[0]
	assert.Equal(t, "Souza Studio", c.Name)
	assert.Equal(t, company.DefaultCurrency, c.Currency)
	assert.Len(t, c.JoinCode, 8)
	require.NotNil(t, resp.User.CompanyID)
	assert.Equal(t, c.ID, *resp.User.CompanyID)
	assert.Equal(t, f.users.created[0].ID, c.OwnerUserID)
	assert.Contains(t, f.tokens.stored, resp.RefreshToken)
	assert.Empty(t, f.notifier.queued)
}

func TestAuthService_Register_Employee(t *testing.T) {
	f := newFixture()
	req := registerRequest()
	req.CompanyCode = "acme2025"

	resp, err := f.svc.Register(context.Background(), user.RoleEmployee, req, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	require.Len(t, f.employees.created, 1)
	emp := f.employees.created[0]
	assert.Equal(t, "co-1", emp.CompanyID)
	assert.Equal(t, "EMP-0001", emp.EmployeeCode)
	assert.Equal(t, employee.EmploymentStatusActive, emp.EmploymentStatus)
	require.NotNil(t, resp.User.EmployeeID)
	assert.Equal(t, "emp-1", *resp.User.EmployeeID)

	require.Len(t, f.notifier.queued, 1)
	assert.Equal(t, "owner-1", f.notifier.queued[0].RecipientID)
	assert.Equal(t, notification.TypeMemberJoined, f.notifier.queued[0].Type)
}

func TestAuthService_Register_ContractorInheritsCurrency(t *testing.T) {
	f := newFixture()
	req := registerRequest()
	req.CompanyCode = "ACME2025"

	resp, err := f.svc.Register(context.Background(), user.RoleContractor, req, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	require.Len(t, f.contractors.created, 1)
	assert.Equal(t, "EUR", f.contractors.created[0].Currency)
	require.NotNil(t, resp.User.ContractorID)
}

func TestAuthService_Register_Errors(t *testing.T) {
	tests := []struct {
		name    string
		role    user.Role
		mutate  func(*auth.RegisterRequest)
		seed    func(*fixture)
		wantErr error
	}{
		{
			name:    "admin is not registrable",
			role:    user.RoleAdmin,
			wantErr: auth.ErrRoleNotRegistrable,
		},
		{
			name:    "unknown join code",
			role:    user.RoleEmployee,
			mutate:  func(r *auth.RegisterRequest) { r.CompanyCode = "NOPE1234" },
			wantErr: auth.ErrInvalidCompanyCode,
		},
		{
			name:   "email taken",
			role:   user.RoleClient,
			mutate: func(r *auth.RegisterRequest) { r.CompanyName = "X" },
			seed: func(f *fixture) {
				f.users.byEmail["ana@example.com"] = user.User{ID: "u0", Email: "ana@example.com"}
			},
			wantErr: user.ErrUserEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.seed != nil {
				tt.seed(f)
			}
			req := registerRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := f.svc.Register(context.Background(), tt.role, req, auth.SessionTrackingRequest{})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.tx.calls)
		})
	}
}

func TestAuthService_Register_ValidationError(t *testing.T) {
	f := newFixture()
	req := registerRequest()
	req.ConfirmPassword = "different"

	_, err := f.svc.Register(context.Background(), user.RoleClient, req, auth.SessionTrackingRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirm_password")
}

func seedUser(t *testing.T, f *fixture, email, password string, role user.Role) user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	u := user.User{ID: "u-" + email, Name: "Seed", Email: email, PasswordHash: &h, Role: role}
	f.users.byEmail[email] = u
	return u
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture()
	seedUser(t, f, "ana@example.com", "password123", user.RoleEmployee)

	resp, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: " ANA@example.com ", Password: "password123"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "employee", resp.User.Role)

	_, err = f.svc.Login(context.Background(), auth.LoginRequest{Email: "ana@example.com", Password: "wrongpassword"}, auth.SessionTrackingRequest{})
	assert.Equal(t, auth.ErrInvalidCredentials, err)

	_, err = f.svc.Login(context.Background(), auth.LoginRequest{Email: "nobody@example.com", Password: "password123"}, auth.SessionTrackingRequest{})
	assert.Equal(t, auth.ErrInvalidCredentials, err)
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	f := newFixture()
	seedUser(t, f, "ana@example.com", "password123", user.RoleClient)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Email: "ana@example.com", Password: "password123"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = f.svc.RefreshToken(ctx, login.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	require.NoError(t, f.svc.Logout(ctx, login.RefreshToken, login.AccessToken))
	assert.True(t, f.jwt.IsTokenRevoked(login.AccessToken))

	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
}

func TestAuthService_GoogleDisabled(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.GoogleLoginURL()
	assert.ErrorIs(t, err, auth.ErrGoogleLoginDisabled)

	_, err = f.svc.GoogleCallback(context.Background(), "code", "state", auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrGoogleLoginDisabled)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates first admin", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.svc.EnsureAdmin(ctx, "Root", "root@example.com", "supersecret"))
		require.Len(t, f.users.created, 1)
		assert.Equal(t, user.RoleAdmin, f.users.created[0].Role)
	})

	t.Run("skips when admin exists", func(t *testing.T) {
		f := newFixture()
		f.users.adminExists = true
		require.NoError(t, f.svc.EnsureAdmin(ctx, "Root", "root@example.com", "supersecret"))
		assert.Empty(t, f.users.created)
	})

	t.Run("skips without credentials", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.svc.EnsureAdmin(ctx, "Root", "", ""))
		assert.Empty(t, f.users.created)
	})
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Me(context.Background())
	assert.True(t, errors.Is(err, jwt.ErrMissingClaims))
}
