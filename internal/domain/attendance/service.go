package attendance

import (
	"context"
	"time"
)

type AttendanceService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)
	GetToday(ctx context.Context) (*AttendanceResponse, error)
	GetMyHistory(ctx context.Context, req MyHistoryRequest) ([]AttendanceResponse, error)
	List(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	Correct(ctx context.Context, id string, req CorrectAttendanceRequest) (AttendanceResponse, error)
	// MarkAbsent writes absent rows for every company whose local date
	// is a workday before now. Returns the number of rows written.
	MarkAbsent(ctx context.Context, now time.Time) (int, error)
}
