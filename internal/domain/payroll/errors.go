package payroll

import "errors"

var (
	ErrPayrollSettingsNotFound    = errors.New("payroll settings not found")
	ErrPayrollComponentNotFound   = errors.New("payroll component not found")
	ErrPayrollComponentNameExists = errors.New("payroll component name already exists")
	ErrPayrollRecordNotFound      = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyExists = errors.New("payroll record already exists for this period")
	ErrInvalidStatusTransition    = errors.New("invalid payroll status transition")
	ErrInvalidPeriod              = errors.New("invalid payroll period")
	ErrCannotDeletePaidRecord     = errors.New("cannot delete paid payroll record")
	ErrEmployeeComponentNotFound  = errors.New("employee component assignment not found")
	ErrEmployeeNotFound           = errors.New("employee not found")
	ErrNoEligibleEmployees        = errors.New("no eligible employees for this period")
	ErrPayslipNotFound            = errors.New("payslip not found")
)
