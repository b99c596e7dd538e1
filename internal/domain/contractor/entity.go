package contractor

import (
	"time"

	"github.com/shopspring/decimal"
)

type Contractor struct {
	ID            string
	UserID        string
	CompanyID     string
	Specialty     *string
	HourlyRate    decimal.Decimal
	Currency      string
	ContractStart *time.Time
	ContractEnd   *time.Time
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Join
	FullName string
	Email    string
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

func (c Contractor) IsActive() bool {
	return c.Status == StatusActive
}
