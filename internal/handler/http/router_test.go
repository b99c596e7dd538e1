package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/auth"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/dashboard"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/middleware"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

// Fakes embed the service interface so tests only implement what they call.

type fakeAuthService struct {
	auth.AuthService
	register func(ctx context.Context, role user.Role, req auth.RegisterRequest) (auth.TokenResponse, error)
	login    func(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error)
	logout   func(ctx context.Context, refresh, access string) error
}

func (f *fakeAuthService) Register(ctx context.Context, role user.Role, req auth.RegisterRequest, _ auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	return f.register(ctx, role, req)
}

func (f *fakeAuthService) Login(ctx context.Context, req auth.LoginRequest, _ auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	return f.login(ctx, req)
}

func (f *fakeAuthService) Logout(ctx context.Context, refresh, access string) error {
	return f.logout(ctx, refresh, access)
}

type fakePayrollService struct {
	payroll.PayrollService
	list     func(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error)
	approve  func(ctx context.Context, id string) (payroll.PayrollRecordResponse, error)
	download func(ctx context.Context, id string) (payroll.ExportFile, error)
}

func (f *fakePayrollService) List(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	return f.list(ctx, filter)
}

func (f *fakePayrollService) Approve(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	return f.approve(ctx, id)
}

func (f *fakePayrollService) DownloadMyPayslip(ctx context.Context, id string) (payroll.ExportFile, error) {
	return f.download(ctx, id)
}

type fakeDashboardService struct {
	dashboard.DashboardService
}

func (fakeDashboardService) GetClientDashboard(ctx context.Context) (*dashboard.ClientDashboardResponse, error) {
	return &dashboard.ClientDashboardResponse{Role: string(user.RoleClient)}, nil
}

func (fakeDashboardService) GetEmployeeDashboard(ctx context.Context) (*dashboard.EmployeeDashboardResponse, error) {
	return &dashboard.EmployeeDashboardResponse{Role: string(user.RoleEmployee)}, nil
}

type testServer struct {
	router  http.Handler
	jwt     jwt.Service
	auth    *fakeAuthService
	payroll *fakePayrollService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		jwt:     jwt.NewJWTService("handler-test-secret", "1h", "24h", false),
		auth:    &fakeAuthService{},
		payroll: &fakePayrollService{},
	}
	s.router = NewRouter(RouterConfig{
		AppName:      "payroll-test",
		Version:      "test",
		Env:          "test",
		JWTService:   s.jwt,
		Idempotency:  middleware.NewIdempotency(nil),
		LoginLimiter: middleware.NewRateLimiter(600, 100),
		Auth:         NewAuthHandler(s.jwt, s.auth, "http://localhost:5173", false),
		User:         NewUserHandler(nil),
		Company:      NewCompanyHandler(nil),
		Employee:     NewEmployeeHandler(nil),
		Contractor:   NewContractorHandler(nil),
		Attendance:   NewAttendanceHandler(nil),
		Payroll:      NewPayrollHandler(s.payroll),
		Leave:        NewLeaveHandler(nil),
		Invoice:      NewInvoiceHandler(nil),
		Notification: NewNotificationHandler(nil, s.jwt),
		Dashboard:    NewDashboardHandler(fakeDashboardService{}),
	})
	return s
}

func (s *testServer) token(t *testing.T, role user.Role) string {
	t.Helper()
	companyID := "co-1"
	employeeID := "emp-1"
	identity := jwt.Identity{UserID: "user-1", Email: "ana@example.com", Name: "Ana", Role: role}
	if role != user.RoleAdmin {
		identity.CompanyID = &companyID
	}
	if role == user.RoleEmployee {
		identity.EmployeeID = &employeeID
	}
	token, _, err := s.jwt.GenerateAccessToken(identity)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRegister_AdminRoleRefused(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/auth/register/admin", "", map[string]string{"email": "a@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, auth.ErrRoleNotRegistrable.Error(), env.Error.Message)
}

func TestRegister_ValidationDetails(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/auth/register/client", "", map[string]string{
		"name":             "Ana",
		"email":            "not-an-email",
		"password":         "password123",
		"confirm_password": "password123",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")
	assert.Contains(t, env.Error.Details, "company_name")
}

func TestRegister_SetsRefreshCookie(t *testing.T) {
	s := newTestServer(t)
	s.auth.register = func(ctx context.Context, role user.Role, req auth.RegisterRequest) (auth.TokenResponse, error) {
		assert.Equal(t, user.RoleEmployee, role)
		assert.Equal(t, "ACME2025", req.CompanyCode)
		return auth.TokenResponse{
			AccessToken:           "access",
			RefreshToken:          "refresh",
			RefreshTokenExpiresIn: 4102444800,
			User:                  user.UserResponse{ID: "u1", Role: string(role)},
		}, nil
	}

	rec := s.do(http.MethodPost, "/api/auth/register/employee", "", map[string]string{
		"name":             "Ana",
		"email":            "ana@example.com",
		"password":         "password123",
		"confirm_password": "password123",
		"company_code":     "acme2025",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "refresh_token", cookies[0].Name)
	assert.Equal(t, "refresh", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer(t)
	s.auth.login = func(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestLogin_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_ClearsCookieAndRevokesAccessToken(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, user.RoleClient)
	s.auth.logout = func(ctx context.Context, refresh, access string) error {
		assert.Equal(t, "refresh-1", refresh)
		assert.Equal(t, token, access)
		return nil
	}

	rec := s.do(http.MethodPost, "/api/auth/logout", token, map[string]string{"refresh_token": "refresh-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestClientRoutes_RoleGate(t *testing.T) {
	s := newTestServer(t)
	s.payroll.list = func(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
		return payroll.ListPayrollRecordResponse{Data: []payroll.PayrollRecordResponse{}, Page: 1, Limit: 20}, nil
	}

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/client/payroll", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/client/payroll", s.token(t, user.RoleEmployee), nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/client/payroll", s.token(t, user.RoleAdmin), nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/client/payroll", s.token(t, user.RoleClient), nil).Code)
}

func TestListPayroll_FiltersAndMeta(t *testing.T) {
	s := newTestServer(t)
	s.payroll.list = func(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
		require.NotNil(t, filter.Query)
		assert.Equal(t, "ana", *filter.Query)
		require.NotNil(t, filter.Status)
		assert.Equal(t, "pending", *filter.Status)
		require.NotNil(t, filter.PeriodMonth)
		assert.Equal(t, 3, *filter.PeriodMonth)
		assert.Nil(t, filter.PeriodYear)
		assert.Equal(t, 2, filter.Page)

		claims, err := jwt.CompanyClaimsFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "co-1", claims.CompanyID)

		return payroll.ListPayrollRecordResponse{
			Data:       []payroll.PayrollRecordResponse{{ID: "p1"}},
			TotalCount: 41,
			Page:       2,
			Limit:      20,
		}, nil
	}

	rec := s.do(http.MethodGet, "/api/client/payroll?query=ana&status=pending&month=3&page=2", s.token(t, user.RoleClient), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(41), env.Meta.TotalItems)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestListPayroll_BadMonth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/client/payroll?month=march", s.token(t, user.RoleClient), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestApprovePayroll_InvalidTransition(t *testing.T) {
	s := newTestServer(t)
	s.payroll.approve = func(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
		assert.Equal(t, "rec-9", id)
		return payroll.PayrollRecordResponse{}, payroll.ErrInvalidStatusTransition
	}

	rec := s.do(http.MethodPut, "/api/client/payroll/rec-9/approve", s.token(t, user.RoleClient), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDownloadPayslip(t *testing.T) {
	s := newTestServer(t)
	s.payroll.download = func(ctx context.Context, id string) (payroll.ExportFile, error) {
		return payroll.ExportFile{
			Filename:    "payslip-emp-0001-2025-03.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.4"),
		}, nil
	}

	rec := s.do(http.MethodGet, "/api/employee/payslips/p1/download", s.token(t, user.RoleEmployee), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-emp-0001-2025-03.pdf")
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}

func TestDashboard_RoleSwitch(t *testing.T) {
	s := newTestServer(t)

	for _, role := range []user.Role{user.RoleClient, user.RoleEmployee} {
		rec := s.do(http.MethodGet, "/api/dashboard", s.token(t, role), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Role string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
		assert.Equal(t, string(role), data.Role)
	}

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/dashboard", "", nil).Code)
}

func TestNotificationStream_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/notifications/stream", "", nil).Code)

	access := s.token(t, user.RoleEmployee)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/notifications/stream?token="+access, "", nil).Code)
}

func TestSSEToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/notifications/sse-token", s.token(t, user.RoleEmployee), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	userID, err := s.jwt.ValidateSSEToken(data.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}
