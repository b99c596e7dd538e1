package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/auth"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/events"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/oauth"
	"golang.org/x/crypto/bcrypt"
)

const joinCodeAttempts = 3

type AuthServiceImpl struct {
	tx             database.Transactor
	userRepo       user.UserRepository
	companyRepo    company.CompanyRepository
	employeeRepo   employee.EmployeeRepository
	contractorRepo contractor.ContractorRepository
	tokenRepo      auth.RefreshTokenRepository
	jwtService     jwt.Service
	google         oauth.GoogleService
	notifier       notification.Service
	publisher      events.Publisher
	bcryptCost     int
	now            func() time.Time
}

// Deps groups the collaborators of the auth service. Google may be nil
// when OAuth is not configured.
type Deps struct {
	Transactor    database.Transactor
	Users         user.UserRepository
	Companies     company.CompanyRepository
	Employees     employee.EmployeeRepository
	Contractors   contractor.ContractorRepository
	RefreshTokens auth.RefreshTokenRepository
	JWT           jwt.Service
	Google        oauth.GoogleService
	Notifications notification.Service
	Publisher     events.Publisher
	BcryptCost    int
}

func NewAuthService(d Deps) auth.AuthService {
	cost := d.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &AuthServiceImpl{
		tx:             d.Transactor,
		userRepo:       d.Users,
		companyRepo:    d.Companies,
		employeeRepo:   d.Employees,
		contractorRepo: d.Contractors,
		tokenRepo:      d.RefreshTokens,
		jwtService:     d.JWT,
		google:         d.Google,
		notifier:       d.Notifications,
		publisher:      publisher,
		bcryptCost:     cost,
		now:            time.Now,
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Register implements auth.AuthService.
func (a *AuthServiceImpl) Register(ctx context.Context, role user.Role, req auth.RegisterRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if !role.IsRegistrable() {
		return auth.TokenResponse{}, auth.ErrRoleNotRegistrable
	}
	if err := req.Validate(role); err != nil {
		return auth.TokenResponse{}, err
	}

	exists, err := a.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return auth.TokenResponse{}, user.ErrUserEmailExists
	}

	hash, err := a.hashPassword(req.Password)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	var joinedCompany *company.Company
	if role != user.RoleClient {
		c, err := a.companyRepo.GetByJoinCode(ctx, req.CompanyCode)
		if err != nil {
			if errors.Is(err, company.ErrCompanyNotFound) {
				return auth.TokenResponse{}, auth.ErrInvalidCompanyCode
			}
			return auth.TokenResponse{}, fmt.Errorf("failed to get company by join code: %w", err)
		}
		joinedCompany = &c
	}

	var (
		created  user.User
		response auth.TokenResponse
	)
	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		newUser := user.User{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: &hash,
			Role:         role,
			Phone:        req.Phone,
		}

		switch role {
		case user.RoleClient:
			companyID := uuid.NewString()
			newUser.CompanyID = &companyID
			if created, err = a.userRepo.Create(txCtx, newUser); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			if _, err := a.createCompany(txCtx, companyID, created.ID, req); err != nil {
				return err
			}
		case user.RoleEmployee:
			newUser.CompanyID = &joinedCompany.ID
			if created, err = a.userRepo.Create(txCtx, newUser); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			code, err := a.employeeRepo.NextEmployeeCode(txCtx, joinedCompany.ID)
			if err != nil {
				return fmt.Errorf("failed to allocate employee code: %w", err)
			}
			emp, err := a.employeeRepo.Create(txCtx, employee.Employee{
				UserID:           created.ID,
				CompanyID:        joinedCompany.ID,
				EmployeeCode:     code,
				EmploymentType:   employee.EmploymentTypeProbation,
				EmploymentStatus: employee.EmploymentStatusActive,
				BasicSalary:      decimal.Zero,
				HireDate:         a.now().In(joinedCompany.Location()),
			})
			if err != nil {
				return fmt.Errorf("failed to create employee: %w", err)
			}
			created.EmployeeID = &emp.ID
		case user.RoleContractor:
			newUser.CompanyID = &joinedCompany.ID
			if created, err = a.userRepo.Create(txCtx, newUser); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			ctr, err := a.contractorRepo.Create(txCtx, contractor.Contractor{
				UserID:     created.ID,
				CompanyID:  joinedCompany.ID,
				HourlyRate: decimal.Zero,
				Currency:   joinedCompany.Currency,
				Status:     contractor.StatusActive,
			})
			if err != nil {
				return fmt.Errorf("failed to create contractor: %w", err)
			}
			created.ContractorID = &ctr.ID
		}

		response, err = a.issueTokens(txCtx, created, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	if joinedCompany != nil {
		a.notifyMemberJoined(ctx, *joinedCompany, created)
	}
	events.PublishAsync(a.publisher, events.New(events.UserRegistered, created.ID, deref(created.CompanyID), map[string]string{
		"user_id": created.ID,
		"role":    string(created.Role),
	}))

	return response, nil
}

func (a *AuthServiceImpl) createCompany(ctx context.Context, id, ownerID string, req auth.RegisterRequest) (company.Company, error) {
	currency := req.Currency
	if currency == "" {
		currency = company.DefaultCurrency
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = company.DefaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return company.Company{}, company.ErrInvalidTimezone
	}

	for attempt := 1; ; attempt++ {
		code, err := company.GenerateJoinCode()
		if err != nil {
			return company.Company{}, err
		}
		created, err := a.companyRepo.Create(ctx, company.Company{
			ID:               id,
			Name:             req.CompanyName,
			JoinCode:         code,
			OwnerUserID:      ownerID,
			WorkStartTime:    company.DefaultWorkStart,
			WorkEndTime:      company.DefaultWorkEnd,
			LateGraceMinutes: company.DefaultLateGraceMinutes,
			Currency:         currency,
			Timezone:         timezone,
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, company.ErrJoinCodeExists) || attempt == joinCodeAttempts {
			return company.Company{}, fmt.Errorf("failed to create company: %w", err)
		}
	}
}

func (a *AuthServiceImpl) notifyMemberJoined(ctx context.Context, c company.Company, member user.User) {
	if a.notifier == nil {
		return
	}
	err := a.notifier.Notify(ctx, notification.NotifyRequest{
		CompanyID:   &c.ID,
		RecipientID: c.OwnerUserID,
		SenderID:    &member.ID,
		Type:        notification.TypeMemberJoined,
		Title:       "New member joined",
		Message:     fmt.Sprintf("%s joined %s as %s", member.Name, c.Name, member.Role),
		Data: map[string]interface{}{
			"user_id": member.ID,
			"role":    string(member.Role),
		},
	})
	if err != nil {
		slog.Warn("failed to queue member joined notification", "company_id", c.ID, "error", err)
	}
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userData, err := a.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !userData.HasPassword() {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	return a.issueTokens(ctx, userData, session)
}

func (a *AuthServiceImpl) issueTokens(ctx context.Context, u user.User, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var (
		resp auth.TokenResponse
		err  error
	)

	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.jwtService.GenerateAccessToken(identityOf(u))
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	resp.RefreshToken, resp.RefreshTokenExpiresIn, err = a.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}
	if err := a.tokenRepo.CreateRefreshToken(ctx, u.ID, resp.RefreshToken, resp.RefreshTokenExpiresIn, session); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to save refresh token to database: %w", err)
	}

	resp.User = user.ToResponse(u)
	return resp, nil
}

func identityOf(u user.User) jwt.Identity {
	return jwt.Identity{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		CompanyID:    u.CompanyID,
		EmployeeID:   u.EmployeeID,
		ContractorID: u.ContractorID,
	}
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (auth.AccessTokenResponse, error) {
	if refreshToken == "" {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	userID, err := a.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	revoked, err := a.tokenRepo.IsRefreshTokenRevoked(ctx, refreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if revoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	userData, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidToken
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	token, expiresAt, err := a.jwtService.GenerateAccessToken(identityOf(userData))
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	return auth.AccessTokenResponse{AccessToken: token, AccessTokenExpiresIn: expiresAt}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string, accessToken string) error {
	if refreshToken != "" {
		if err := a.tokenRepo.RevokeRefreshToken(ctx, refreshToken); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	if accessToken != "" {
		a.jwtService.RevokeToken(accessToken)
	}
	return nil
}

// Me implements auth.AuthService.
func (a *AuthServiceImpl) Me(ctx context.Context) (user.UserResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}
	u, err := a.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(u), nil
}

// GoogleLoginURL implements auth.AuthService.
func (a *AuthServiceImpl) GoogleLoginURL() (string, string, error) {
	if a.google == nil {
		return "", "", auth.ErrGoogleLoginDisabled
	}
	state, err := a.google.GenerateState()
	if err != nil {
		return "", "", err
	}
	return a.google.RedirectURL(state), state, nil
}

// GoogleCallback signs in an existing account. Google sign-in never
// creates accounts because registration needs a role and, for members,
// a join code.
func (a *AuthServiceImpl) GoogleCallback(ctx context.Context, code, state string, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if a.google == nil {
		return auth.TokenResponse{}, auth.ErrGoogleLoginDisabled
	}
	if err := a.google.ValidateState(state); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}

	info, err := a.google.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrEmailNotVerified) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("google exchange failed: %w", err)
	}

	userData, err := a.userRepo.GetByGoogleID(ctx, info.GoogleID)
	if errors.Is(err, user.ErrUserNotFound) {
		userData, err = a.userRepo.GetByEmail(ctx, info.Email)
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrGoogleAccountNotRegistered
		}
		if err == nil {
			userData, err = a.userRepo.LinkGoogleAccount(ctx, info.GoogleID, info.Email)
		}
	}
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to resolve google account: %w", err)
	}

	return a.issueTokens(ctx, userData, session)
}

// EnsureAdmin creates the first platform admin. It does nothing when an
// admin already exists or no credentials are configured.
func (a *AuthServiceImpl) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	exists, err := a.userRepo.ExistsByRole(ctx, user.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if exists {
		return nil
	}

	taken, err := a.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		slog.Warn("admin bootstrap email belongs to another account, skipping", "email", email)
		return nil
	}

	hash, err := a.hashPassword(password)
	if err != nil {
		return err
	}
	if _, err := a.userRepo.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         user.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("platform admin created", "email", email)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
