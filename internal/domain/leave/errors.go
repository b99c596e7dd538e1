package leave

import "errors"

var (
	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrInsufficientQuota            = errors.New("insufficient leave balance")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already processed")
	ErrOverlappingRequest           = errors.New("leave request overlaps an existing request")
	ErrNoWorkingDays                = errors.New("leave request contains no working days")
	ErrCrossYearRequest             = errors.New("leave request must start and end in the same year")
	ErrLeaveQuotaNotFound           = errors.New("leave quota not found")
)
