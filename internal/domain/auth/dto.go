package auth

import (
	"strings"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

type RegisterRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	Phone           *string `json:"phone,omitempty"`

	// client only
	CompanyName string `json:"company_name,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Timezone    string `json:"timezone,omitempty"`

	// employee and contractor
	CompanyCode string `json:"company_code,omitempty"`
}

// Validate checks the fields shared by every role plus the ones role requires.
func (r *RegisterRequest) Validate(role user.Role) error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	} else if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 100 characters",
		})
	}

	// Email
	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "invalid email format",
		})
	}

	// Password
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	} else if len(r.Password) < 8 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 8 characters",
		})
	}
	if r.ConfirmPassword != r.Password {
		errs = append(errs, validator.ValidationError{
			Field:   "confirm_password",
			Message: "confirm_password does not match password",
		})
	}

	if r.Phone != nil && !validator.IsValidPhoneNumber(*r.Phone) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone",
			Message: "invalid phone number",
		})
	}

	switch role {
	case user.RoleClient:
		r.CompanyName = strings.TrimSpace(r.CompanyName)
		if validator.IsEmpty(r.CompanyName) {
			errs = append(errs, validator.ValidationError{
				Field:   "company_name",
				Message: "company_name is required",
			})
		} else if len(r.CompanyName) > 255 {
			errs = append(errs, validator.ValidationError{
				Field:   "company_name",
				Message: "company_name must not exceed 255 characters",
			})
		}
		r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
		if r.Currency != "" && !validator.IsValidCurrencyCode(r.Currency) {
			errs = append(errs, validator.ValidationError{
				Field:   "currency",
				Message: "currency must be a 3-letter ISO 4217 code",
			})
		}
	case user.RoleEmployee, user.RoleContractor:
		r.CompanyCode = strings.ToUpper(strings.TrimSpace(r.CompanyCode))
		if validator.IsEmpty(r.CompanyCode) {
			errs = append(errs, validator.ValidationError{
				Field:   "company_code",
				Message: "company_code is required",
			})
		} else if !validator.IsValidJoinCode(r.CompanyCode) {
			errs = append(errs, validator.ValidationError{
				Field:   "company_code",
				Message: "company_code must be 6-12 letters or digits",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "invalid email format",
		})
	}

	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionTrackingRequest struct {
	UserAgent string
	IPAddress string
}

type TokenResponse struct {
	AccessToken           string            `json:"access_token"`
	AccessTokenExpiresIn  int64             `json:"access_token_expires_in"`
	RefreshToken          string            `json:"refresh_token"`
	RefreshTokenExpiresIn int64             `json:"refresh_token_expires_in"`
	User                  user.UserResponse `json:"user"`
}

type AccessTokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in"`
}
