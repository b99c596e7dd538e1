package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/currency"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

// Editable reports whether the contractor may still change line items.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusRejected
}

var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusRejected:  {StatusSubmitted},
	StatusApproved:  {StatusPaid},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type LineItem struct {
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

type Invoice struct {
	ID              string
	CompanyID       string
	ContractorID    string
	Number          string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Items           []LineItem
	Total           decimal.Decimal
	Currency        string
	Notes           *string
	Status          Status
	RejectionReason *string
	SubmittedAt     *time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Join
	ContractorName   *string
	ContractorUserID *string
}

// PriceItems fills every line's amount as hours x rate and returns the items
// with their total. Amounts are rounded to the minor units of code.
func PriceItems(items []LineItem, code string) ([]LineItem, decimal.Decimal) {
	priced := make([]LineItem, len(items))
	total := decimal.Zero
	for i, item := range items {
		item.Amount = currency.Round(item.Hours.Mul(item.Rate), code)
		total = total.Add(item.Amount)
		priced[i] = item
	}
	return priced, currency.Round(total, code)
}

// FormatNumber builds an invoice number such as INV-202503-0007.
func FormatNumber(periodStart time.Time, seq int) string {
	return fmt.Sprintf("INV-%04d%02d-%04d", periodStart.Year(), int(periodStart.Month()), seq)
}

// StatusTotals aggregates invoices of one status.
type StatusTotals struct {
	Status Status
	Count  int64
	Amount decimal.Decimal
}
