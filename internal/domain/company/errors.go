package company

import "errors"

var (
	ErrCompanyNotFound    = errors.New("company not found")
	ErrJoinCodeExists     = errors.New("join code already exists")
	ErrInvalidCompanyName = errors.New("company name cannot be empty")
	ErrInvalidTimezone    = errors.New("unknown timezone")
	ErrInvalidWorkHours   = errors.New("work end time must differ from work start time")
)
