package middleware

import (
	"net/http"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
)

// AdminOnly restricts a route to platform admins.
func AdminOnly(next http.Handler) http.Handler {
	return RequireRoles(user.RoleAdmin)(next)
}
