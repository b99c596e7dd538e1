package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
)

// AttendanceJobs holds the attendance housekeeping jobs.
type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	interval          time.Duration
	now               func() time.Time
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		interval:          interval,
		now:               time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", j.interval, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees closes out the previous local day of every company.
// Re-running it is harmless because employees that already have a row for
// the day are skipped.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	count, err := j.attendanceService.MarkAbsent(ctx, j.now())
	if err != nil {
		return fmt.Errorf("mark absent employees: %w", err)
	}
	if count > 0 {
		slog.Info("Cron: Marked absent employees", "count", count)
	}
	return nil
}
