package jwt

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
)

// ErrMissingClaims is returned when a request context carries no usable access token.
var ErrMissingClaims = errors.New("missing or invalid token claims")

// Identity is the subject an access token is issued for.
type Identity struct {
	UserID       string
	Email        string
	Name         string
	Role         user.Role
	CompanyID    *string
	EmployeeID   *string
	ContractorID *string
}

type Service interface {
	GenerateAccessToken(identity Identity) (token string, expiresAt int64, err error)
	GenerateRefreshToken(userID string) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, err error)
	ValidateRefreshToken(tokenString string) (userID string, err error)
	JWTAuth() *jwtauth.JWTAuth
	RefreshTokenCookie(token string, expiresAt int64) *http.Cookie
	RevokeToken(token string)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	secretKey                  string
	accessTokenExpirationTime  string
	refreshTokenExpirationTime string
	secureCookie               bool
	tokenAuth                  *jwtauth.JWTAuth
	revokedTokens              map[string]int64
	mu                         sync.RWMutex
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string, refreshTokenExpirationTime string, secureCookie bool) Service {
	return &JWTService{
		secretKey:                  secretKey,
		accessTokenExpirationTime:  accessTokenExpirationTime,
		refreshTokenExpirationTime: refreshTokenExpirationTime,
		secureCookie:               secureCookie,
		tokenAuth:                  jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:              make(map[string]int64),
	}
}

func (j *JWTService) GenerateAccessToken(identity Identity) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":       identity.UserID,
		"email":         identity.Email,
		"name":          identity.Name,
		"role":          string(identity.Role),
		"company_id":    valueOrNil(identity.CompanyID),
		"employee_id":   valueOrNil(identity.EmployeeID),
		"contractor_id": valueOrNil(identity.ContractorID),
		"type":          "access",
		"exp":           expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func (j *JWTService) GenerateRefreshToken(userID string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.refreshTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"exp":     expiresAt,
		"jti":     uuid.NewString(),
		"type":    "refresh",
	})
	return tokenString, expiresAt, err
}

func (j *JWTService) RefreshTokenCookie(token string, expiresAt int64) *http.Cookie {
	return &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/api/auth",
		Expires:  time.Unix(expiresAt, 0),
		HttpOnly: true,
		Secure:   j.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

func (j *JWTService) RevokeToken(token string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now().Unix()
	j.revokedTokens[token] = now
	// Forget revocations older than a day; access tokens are expired by then.
	for t, at := range j.revokedTokens {
		if now-at > 86400 {
			delete(j.revokedTokens, t)
		}
	}
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(userID string) (token string, expiresIn int, err error) {
	expiresIn = 300
	expiresAt := time.Now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"type":    "sse",
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns the user ID
func (j *JWTService) ValidateSSEToken(tokenString string) (string, error) {
	return j.validateTyped(tokenString, "sse")
}

// ValidateRefreshToken validates a refresh token signature, expiry and type.
func (j *JWTService) ValidateRefreshToken(tokenString string) (string, error) {
	return j.validateTyped(tokenString, "refresh")
}

func (j *JWTService) validateTyped(tokenString, wantType string) (string, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != wantType {
		return "", jwt.ErrInvalidJWT()
	}

	userIDVal, ok := token.Get("user_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return userID, nil
}

// Claims is the typed view of an access token carried in a request context.
type Claims struct {
	UserID       string
	Email        string
	Name         string
	Role         user.Role
	CompanyID    string
	EmployeeID   string
	ContractorID string
}

// ClaimsFromContext reads the access token claims that jwtauth.Verifier put into ctx.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	token, raw, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return Claims{}, ErrMissingClaims
	}
	if t, _ := raw["type"].(string); t != "access" {
		return Claims{}, ErrMissingClaims
	}

	c := Claims{
		UserID:       stringClaim(raw, "user_id"),
		Email:        stringClaim(raw, "email"),
		Name:         stringClaim(raw, "name"),
		Role:         user.Role(stringClaim(raw, "role")),
		CompanyID:    stringClaim(raw, "company_id"),
		EmployeeID:   stringClaim(raw, "employee_id"),
		ContractorID: stringClaim(raw, "contractor_id"),
	}
	if c.UserID == "" || !c.Role.IsValid() {
		return Claims{}, ErrMissingClaims
	}
	return c, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}

func valueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

// NewContext issues an access token for identity and stores it in ctx the
// way the HTTP verifier does. Used by tests and internal callers that act
// on behalf of a user.
func NewContext(ctx context.Context, svc Service, identity Identity) (context.Context, error) {
	tokenString, _, err := svc.GenerateAccessToken(identity)
	if err != nil {
		return ctx, err
	}
	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	if err != nil {
		return ctx, err
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}

// CompanyClaimsFromContext is ClaimsFromContext for callers that act inside
// one organization.
func CompanyClaimsFromContext(ctx context.Context) (Claims, error) {
	c, err := ClaimsFromContext(ctx)
	if err != nil {
		return Claims{}, err
	}
	if c.CompanyID == "" {
		return Claims{}, user.ErrCompanyIDRequired
	}
	return c, nil
}
