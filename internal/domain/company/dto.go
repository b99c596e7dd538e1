package company

import (
	"strings"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

type CompanyResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	JoinCode         string  `json:"join_code"`
	Address          *string `json:"address,omitempty"`
	WorkStartTime    string  `json:"work_start_time"`
	WorkEndTime      string  `json:"work_end_time"`
	LateGraceMinutes int     `json:"late_grace_minutes"`
	Currency         string  `json:"currency"`
	Timezone         string  `json:"timezone"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func ToResponse(c Company) CompanyResponse {
	return CompanyResponse{
		ID:               c.ID,
		Name:             c.Name,
		JoinCode:         c.JoinCode,
		Address:          c.Address,
		WorkStartTime:    c.WorkStartTime,
		WorkEndTime:      c.WorkEndTime,
		LateGraceMinutes: c.LateGraceMinutes,
		Currency:         c.Currency,
		Timezone:         c.Timezone,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        c.UpdatedAt.Format(time.RFC3339),
	}
}

type UpdateCompanyRequest struct {
	Name             *string `json:"name,omitempty"`
	Address          *string `json:"address,omitempty"`
	WorkStartTime    *string `json:"work_start_time,omitempty"`
	WorkEndTime      *string `json:"work_end_time,omitempty"`
	LateGraceMinutes *int    `json:"late_grace_minutes,omitempty"`
	Currency         *string `json:"currency,omitempty"`
	Timezone         *string `json:"timezone,omitempty"`
}

func (r *UpdateCompanyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		if *r.Name == "" {
			errs = append(errs, validator.ValidationError{
				Field:   "name",
				Message: "name must not be empty",
			})
		} else if len(*r.Name) > 255 {
			errs = append(errs, validator.ValidationError{
				Field:   "name",
				Message: "name must not exceed 255 characters",
			})
		}
	}
	if r.WorkStartTime != nil && !validator.IsValidTimeOfDay(*r.WorkStartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "work_start_time",
			Message: "work_start_time must be HH:MM",
		})
	}
	if r.WorkEndTime != nil && !validator.IsValidTimeOfDay(*r.WorkEndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "work_end_time",
			Message: "work_end_time must be HH:MM",
		})
	}
	if r.LateGraceMinutes != nil && (*r.LateGraceMinutes < 0 || *r.LateGraceMinutes > 240) {
		errs = append(errs, validator.ValidationError{
			Field:   "late_grace_minutes",
			Message: "late_grace_minutes must be between 0 and 240",
		})
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
	if r.Timezone != nil {
		if _, err := time.LoadLocation(*r.Timezone); err != nil || *r.Timezone == "" {
			errs = append(errs, validator.ValidationError{
				Field:   "timezone",
				Message: "unknown timezone",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
