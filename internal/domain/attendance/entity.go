package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
	StatusAbsent  Status = "absent"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusHalfDay, StatusAbsent:
		return true
	}
	return false
}

type Attendance struct {
	ID                string
	CompanyID         string
	EmployeeID        string
	Date              time.Time
	CheckIn           *time.Time
	CheckOut          *time.Time
	CheckInLatitude   *float64
	CheckInLongitude  *float64
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	Status            Status
	LateMinutes       int
	WorkedMinutes     int
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// DTO
	EmployeeName *string
	EmployeeCode *string
}

// IsOpen reports whether the employee checked in and has not checked out yet.
func (a Attendance) IsOpen() bool {
	return a.CheckIn != nil && a.CheckOut == nil
}

// CheckInStatus derives the status of a check-in at checkIn against a shift
// starting at workStart. Arrivals after the grace window are late, and the
// late minutes are counted from workStart.
func CheckInStatus(checkIn, workStart time.Time, graceMinutes int) (Status, int) {
	deadline := workStart.Add(time.Duration(graceMinutes) * time.Minute)
	if !checkIn.After(deadline) {
		return StatusPresent, 0
	}
	return StatusLate, int(checkIn.Sub(workStart).Minutes())
}

// CheckOutStatus derives the status once the employee leaves. Working less
// than half the scheduled shift turns the day into a half-day.
func CheckOutStatus(current Status, checkIn, checkOut time.Time, shiftMinutes int) (Status, int) {
	worked := int(checkOut.Sub(checkIn).Minutes())
	if worked < 0 {
		worked = 0
	}
	if shiftMinutes > 0 && worked*2 < shiftMinutes {
		return StatusHalfDay, worked
	}
	return current, worked
}

// Summary aggregates attendance for a period.
type Summary struct {
	Present     int
	Late        int
	HalfDay     int
	Absent      int
	LateMinutes int
}

// Attended is the number of days with any check-in.
func (s Summary) Attended() int {
	return s.Present + s.Late + s.HalfDay
}

// Absentee identifies an employee missing an attendance row.
type Absentee struct {
	EmployeeID string
	UserID     string
}

// IsWorkday reports whether day falls on Monday to Friday.
func IsWorkday(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DateOf truncates t to its calendar day in t's location, returned as a UTC
// midnight so it round-trips through a DATE column.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
