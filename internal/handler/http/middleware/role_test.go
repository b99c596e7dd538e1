package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

func newJWT() jwt.Service {
	return jwt.NewJWTService("middleware-test-secret", "1h", "24h", false)
}

func tokenFor(t *testing.T, svc jwt.Service, role user.Role) string {
	t.Helper()
	companyID := "co-1"
	identity := jwt.Identity{UserID: "u-" + string(role), Email: "x@example.com", Role: role}
	if role != user.RoleAdmin {
		identity.CompanyID = &companyID
	}
	token, _, err := svc.GenerateAccessToken(identity)
	require.NoError(t, err)
	return token
}

func protected(svc jwt.Service, mw func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired(svc))
	r.With(mw).Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return r
}

func do(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireRoles(t *testing.T) {
	svc := newJWT()
	h := protected(svc, RequireRoles(user.RoleClient, user.RoleAdmin))

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "no token", token: "", want: http.StatusUnauthorized},
		{name: "garbage token", token: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "allowed client", token: tokenFor(t, svc, user.RoleClient), want: http.StatusTeapot},
		{name: "allowed admin", token: tokenFor(t, svc, user.RoleAdmin), want: http.StatusTeapot},
		{name: "employee forbidden", token: tokenFor(t, svc, user.RoleEmployee), want: http.StatusForbidden},
		{name: "contractor forbidden", token: tokenFor(t, svc, user.RoleContractor), want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(h, tt.token).Code)
		})
	}
}

func TestRequireRoles_WithoutVerifier(t *testing.T) {
	h := RequireRoles(user.RoleClient)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	assert.Equal(t, http.StatusUnauthorized, do(h, "").Code)
}

func TestAuthRequired_RevokedToken(t *testing.T) {
	svc := newJWT()
	h := protected(svc, RequireRoles(user.RoleClient))
	token := tokenFor(t, svc, user.RoleClient)

	require.Equal(t, http.StatusTeapot, do(h, token).Code)
	svc.RevokeToken(token)
	assert.Equal(t, http.StatusUnauthorized, do(h, token).Code)
}

func TestAuthRequired_RejectsRefreshToken(t *testing.T) {
	svc := newJWT()
	h := protected(svc, RequireRoles(user.AllRoles...))
	refresh, _, err := svc.GenerateRefreshToken("u1")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(h, refresh).Code)
}

func TestRoleSwitch(t *testing.T) {
	svc := newJWT()
	branch := func(code int) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(code) })
	}
	switched := RoleSwitch(map[user.Role]http.Handler{
		user.RoleClient:   branch(http.StatusAccepted),
		user.RoleEmployee: branch(http.StatusCreated),
	})

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired(svc))
	r.Method(http.MethodGet, "/", switched)

	assert.Equal(t, http.StatusAccepted, do(r, tokenFor(t, svc, user.RoleClient)).Code)
	assert.Equal(t, http.StatusCreated, do(r, tokenFor(t, svc, user.RoleEmployee)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, tokenFor(t, svc, user.RoleContractor)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(switched, "").Code)
}

func TestRequirePermission(t *testing.T) {
	svc := newJWT()
	h := protected(svc, RequirePermission(user.PermissionPayrollApprove))

	assert.Equal(t, http.StatusTeapot, do(h, tokenFor(t, svc, user.RoleClient)).Code)
	assert.Equal(t, http.StatusForbidden, do(h, tokenFor(t, svc, user.RoleEmployee)).Code)
}

func TestRequireCompany(t *testing.T) {
	svc := newJWT()
	h := protected(svc, RequireCompany)

	assert.Equal(t, http.StatusTeapot, do(h, tokenFor(t, svc, user.RoleEmployee)).Code)
	assert.Equal(t, http.StatusForbidden, do(h, tokenFor(t, svc, user.RoleAdmin)).Code)
}

func TestAdminOnly(t *testing.T) {
	svc := newJWT()
	h := protected(svc, AdminOnly)

	assert.Equal(t, http.StatusTeapot, do(h, tokenFor(t, svc, user.RoleAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, do(h, tokenFor(t, svc, user.RoleClient)).Code)
}
