package user

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"      // Platform operator
	RoleClient     Role = "client"     // Organization owner, runs payroll
	RoleEmployee   Role = "employee"   // Salaried, receives payslips
	RoleContractor Role = "contractor" // Hourly, submits invoices
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleAdmin, RoleClient, RoleEmployee, RoleContractor}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleEmployee, RoleContractor:
		return true
	}
	return false
}

// IsRegistrable reports whether the role can be self-registered.
func (r Role) IsRegistrable() bool {
	return r == RoleClient || r == RoleEmployee || r == RoleContractor
}

type User struct {
	ID           string
	CompanyID    *string
	Name         string
	Email        string
	PasswordHash *string
	Role         Role
	Phone        *string
	AvatarURL    *string
	GoogleID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time

	// Join
	EmployeeID   *string
	ContractorID *string
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
