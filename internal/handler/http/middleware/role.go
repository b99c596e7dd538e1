package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

// RequireRoles lets the request through only when the caller's role is one
// of allowed. No valid token is a 401, a role outside allowed is a 403.
func RequireRoles(allowed ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}
			if !slices.Contains(allowed, claims.Role) {
				response.HandleError(w, user.ErrInsufficientPermissions)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RoleSwitch serves one route with a different handler per role.
func RoleSwitch(branches map[user.Role]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := jwt.ClaimsFromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}
		h, ok := branches[claims.Role]
		if !ok {
			response.HandleError(w, user.ErrInsufficientPermissions)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			if !user.HasPermission(claims.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, claims.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
