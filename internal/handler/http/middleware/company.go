package middleware

import (
	"net/http"

	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

// RequireCompany rejects callers whose token is not bound to an organization.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := jwt.CompanyClaimsFromContext(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
