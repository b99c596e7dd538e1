package auth

import (
	"context"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
)

type AuthService interface {
	Register(ctx context.Context, role user.Role, req RegisterRequest, session SessionTrackingRequest) (TokenResponse, error)
	Login(ctx context.Context, req LoginRequest, session SessionTrackingRequest) (TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (AccessTokenResponse, error)
	Logout(ctx context.Context, refreshToken string, accessToken string) error
	Me(ctx context.Context) (user.UserResponse, error)
	// GoogleLoginURL returns the consent URL and the signed state it carries.
	GoogleLoginURL() (url string, state string, err error)
	GoogleCallback(ctx context.Context, code, state string, session SessionTrackingRequest) (TokenResponse, error)
	EnsureAdmin(ctx context.Context, name, email, password string) error
}
