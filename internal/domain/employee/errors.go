package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrEmployeeCodeExists  = errors.New("employee code already exists")
	ErrNegativeSalary      = errors.New("basic salary cannot be negative")
	ErrEmployeeInactive    = errors.New("employee is inactive")
	ErrEmployeeProfileOnly = errors.New("only employees have an employee profile")
)
