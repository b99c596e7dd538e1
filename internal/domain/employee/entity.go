package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID                string
	UserID            string
	CompanyID         string
	EmployeeCode      string
	Department        *string
	Position          *string
	EmploymentType    EmploymentType
	EmploymentStatus  EmploymentStatus
	BasicSalary       decimal.Decimal
	HireDate          time.Time
	BankName          *string
	BankAccountNumber *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Join
	FullName string
	Email    string
}

type EmploymentType string

const (
	EmploymentTypePermanent  EmploymentType = "permanent"
	EmploymentTypeProbation  EmploymentType = "probation"
	EmploymentTypeContract   EmploymentType = "contract"
	EmploymentTypeInternship EmploymentType = "internship"
)

func (t EmploymentType) IsValid() bool {
	switch t {
	case EmploymentTypePermanent, EmploymentTypeProbation, EmploymentTypeContract, EmploymentTypeInternship:
		return true
	}
	return false
}

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

func (s EmploymentStatus) IsValid() bool {
	return s == EmploymentStatusActive || s == EmploymentStatusInactive
}

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
