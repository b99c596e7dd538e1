package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	Create(ctx context.Context, a Attendance) (Attendance, error)
	GetByID(ctx context.Context, companyID, id string) (Attendance, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Attendance, error)
	Update(ctx context.Context, a Attendance) error
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)
	SummaryForPeriod(ctx context.Context, employeeID string, from, to time.Time) (Summary, error)
	CountByStatusOnDate(ctx context.Context, companyID string, date time.Time) (map[Status]int64, error)
	// EmployeesWithoutRecord returns active employees of the company, hired on
	// or before date, with no row on date and no approved leave covering it.
	EmployeesWithoutRecord(ctx context.Context, companyID string, date time.Time) ([]Absentee, error)
}
