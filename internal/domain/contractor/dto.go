package contractor

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

type ContractorResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	CompanyID     string          `json:"company_id"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	Specialty     *string         `json:"specialty,omitempty"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Currency      string          `json:"currency"`
	ContractStart *string         `json:"contract_start,omitempty"`
	ContractEnd   *string         `json:"contract_end,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

func ToResponse(c Contractor) ContractorResponse {
	return ContractorResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		CompanyID:     c.CompanyID,
		FullName:      c.FullName,
		Email:         c.Email,
		Specialty:     c.Specialty,
		HourlyRate:    c.HourlyRate,
		Currency:      c.Currency,
		ContractStart: formatDate(c.ContractStart),
		ContractEnd:   formatDate(c.ContractEnd),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

type ContractorFilter struct {
	CompanyID string  `json:"-"`
	Search    *string `json:"search,omitempty"`
	Status    *string `json:"status,omitempty"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
}

func (f *ContractorFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !Status(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be active or inactive",
		})
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListContractorResponse struct {
	Contractors []ContractorResponse `json:"contractors"`
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
}

type UpdateContractorRequest struct {
	Specialty     *string `json:"specialty,omitempty"`
	HourlyRate    *string `json:"hourly_rate,omitempty"`
	Currency      *string `json:"currency,omitempty"`
	ContractStart *string `json:"contract_start,omitempty"`
	ContractEnd   *string `json:"contract_end,omitempty"`
	Status        *string `json:"status,omitempty"`

	// Parsed by Validate
	HourlyRateValue    *decimal.Decimal `json:"-"`
	ContractStartValue *time.Time       `json:"-"`
	ContractEndValue   *time.Time       `json:"-"`
}

func (r *UpdateContractorRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Specialty != nil {
		*r.Specialty = strings.TrimSpace(*r.Specialty)
		if len(*r.Specialty) > 100 {
			errs = append(errs, validator.ValidationError{
				Field:   "specialty",
				Message: "specialty must not exceed 100 characters",
			})
		}
	}
	if r.HourlyRate != nil {
		rate, err := decimal.NewFromString(*r.HourlyRate)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "hourly_rate",
				Message: "hourly_rate must be a decimal number",
			})
		} else if rate.IsNegative() {
			errs = append(errs, validator.ValidationError{
				Field:   "hourly_rate",
				Message: "hourly_rate cannot be negative",
			})
		} else {
			r.HourlyRateValue = &rate
		}
	}
	if r.Currency != nil {
		*r.Currency = strings.ToUpper(strings.TrimSpace(*r.Currency))
		if !validator.IsValidCurrencyCode(*r.Currency) {
			errs = append(errs, validator.ValidationError{
				Field:   "currency",
				Message: "currency must be a 3-letter ISO 4217 code",
			})
		}
	}
	if r.ContractStart != nil {
		d, ok := validator.IsValidDate(*r.ContractStart)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "contract_start",
				Message: "contract_start must be YYYY-MM-DD",
			})
		} else {
			r.ContractStartValue = &d
		}
	}
	if r.ContractEnd != nil {
		d, ok := validator.IsValidDate(*r.ContractEnd)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "contract_end",
				Message: "contract_end must be YYYY-MM-DD",
			})
		} else {
			r.ContractEndValue = &d
		}
	}
	if r.ContractStartValue != nil && r.ContractEndValue != nil && r.ContractEndValue.Before(*r.ContractStartValue) {
		errs = append(errs, validator.ValidationError{
			Field:   "contract_end",
			Message: "contract_end must not be before contract_start",
		})
	}
	if r.Status != nil && !Status(*r.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be active or inactive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
