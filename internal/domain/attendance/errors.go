package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn  = errors.New("you have already checked in today")
	ErrNotCheckedIn      = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut = errors.New("you have already checked out")
	ErrNotAWorkday       = errors.New("attendance cannot be recorded on a weekend")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrEmployeeRequired   = errors.New("an employee profile is required")
)
