package invoice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

type LineItemRequest struct {
	Description string           `json:"description"`
	Hours       decimal.Decimal  `json:"hours"`
	Rate        *decimal.Decimal `json:"rate,omitempty"` // defaults to the contractor's hourly rate
}

type UpsertInvoiceRequest struct {
	PeriodStart string            `json:"period_start"`
	PeriodEnd   string            `json:"period_end"`
	Items       []LineItemRequest `json:"items"`
	Notes       *string           `json:"notes,omitempty"`

	PeriodStartValue time.Time `json:"-"`
	PeriodEndValue   time.Time `json:"-"`
}

func (r *UpsertInvoiceRequest) Validate() error {
	var errs validator.ValidationErrors

	start, okStart := validator.IsValidDate(r.PeriodStart)
	if !okStart {
		errs = append(errs, validator.ValidationError{
			Field:   "period_start",
			Message: "period_start must be YYYY-MM-DD",
		})
	}
	end, okEnd := validator.IsValidDate(r.PeriodEnd)
	if !okEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "period_end",
			Message: "period_end must be YYYY-MM-DD",
		})
	}
	if okStart && okEnd {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "period_end",
				Message: "period_end must not be before period_start",
			})
		}
		r.PeriodStartValue = start
		r.PeriodEndValue = end
	}

	if len(r.Items) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "items",
			Message: "at least one line item is required",
		})
	}
	for i := range r.Items {
		item := &r.Items[i]
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			errs = append(errs, validator.ValidationError{
				Field:   "items[" + validator.Itoa(i) + "].description",
				Message: "description is required",
			})
		}
		if !item.Hours.IsPositive() {
			errs = append(errs, validator.ValidationError{
				Field:   "items[" + validator.Itoa(i) + "].hours",
				Message: "hours must be greater than 0",
			})
		}
		if item.Rate != nil && item.Rate.IsNegative() {
			errs = append(errs, validator.ValidationError{
				Field:   "items[" + validator.Itoa(i) + "].rate",
				Message: "rate cannot be negative",
			})
		}
	}

	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToLineItems resolves each requested line into a line item, defaulting
// the rate to defaultRate.
func (r *UpsertInvoiceRequest) ToLineItems(defaultRate decimal.Decimal) []LineItem {
	items := make([]LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		rate := defaultRate
		if it.Rate != nil {
			rate = *it.Rate
		}
		items = append(items, LineItem{Description: it.Description, Hours: it.Hours, Rate: rate})
	}
	return items
}

type RejectInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectInvoiceRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type InvoiceFilter struct {
	CompanyID    string  `json:"-"`
	ContractorID *string `json:"contractor_id,omitempty"`
	Status       *string `json:"status,omitempty"`
	Page         int     `json:"page"`
	Limit        int     `json:"limit"`

	// ExcludeDraft hides invoices the contractor has not submitted yet.
	ExcludeDraft bool `json:"-"`
}

func (f *InvoiceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.ContractorID != nil && !validator.IsValidUUID(*f.ContractorID) {
		errs = append(errs, validator.ValidationError{
			Field:   "contractor_id",
			Message: "contractor_id must be a valid UUID",
		})
	}
	if f.Status != nil && !Status(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of draft, submitted, approved, rejected, paid",
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

type InvoiceResponse struct {
	ID              string          `json:"id"`
	ContractorID    string          `json:"contractor_id"`
	ContractorName  *string         `json:"contractor_name,omitempty"`
	Number          string          `json:"number"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	Items           []LineItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	TotalDisplay    string          `json:"total_display"`
	Currency        string          `json:"currency"`
	Notes           *string         `json:"notes,omitempty"`
	Status          string          `json:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	SubmittedAt     *string         `json:"submitted_at,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	PaidAt          *string         `json:"paid_at,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type ListInvoiceResponse struct {
	Invoices   []InvoiceResponse `json:"invoices"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type StatusTotalsResponse struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type ContractorDashboardResponse struct {
	Currency       string                          `json:"currency"`
	ByStatus       map[string]StatusTotalsResponse `json:"by_status"`
	TotalEarned    decimal.Decimal                 `json:"total_earned"`
	Outstanding    decimal.Decimal                 `json:"outstanding"`
	RecentInvoices []InvoiceResponse               `json:"recent_invoices"`
}
