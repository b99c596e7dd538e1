package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestCountWorkingDays(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"single weekday", "2025-03-03", "2025-03-03", 1},
		{"full week", "2025-03-03", "2025-03-09", 5},
		{"weekend only", "2025-03-08", "2025-03-09", 0},
		{"friday to monday", "2025-03-07", "2025-03-10", 2},
		{"two weeks", "2025-03-03", "2025-03-14", 10},
		{"end before start", "2025-03-10", "2025-03-03", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWorkingDays(date(tt.start), date(tt.end)))
		})
	}
}

func TestDefaultEntitlement(t *testing.T) {
	assert.Equal(t, 12, DefaultEntitlement(LeaveTypeAnnual))
	assert.Equal(t, 10, DefaultEntitlement(LeaveTypeSick))
	assert.Equal(t, 3, DefaultEntitlement(LeaveTypePersonal))
	assert.Equal(t, 0, DefaultEntitlement(LeaveTypeUnpaid))
	assert.False(t, LeaveTypeUnpaid.HasQuota())
	assert.True(t, LeaveTypeAnnual.HasQuota())
}

func TestLeaveQuotaAvailable(t *testing.T) {
	q := LeaveQuota{EntitledQuota: 12, AdjustmentQuota: 2, UsedQuota: 5, PendingQuota: 3}
	assert.Equal(t, 6, q.Available())

	resp := ToQuotaResponse(q)
	assert.Equal(t, 14, resp.Entitled)
	assert.Equal(t, 6, resp.Remaining)
}

func TestCreateLeaveRequestRequest_Validate(t *testing.T) {
	req := CreateLeaveRequestRequest{LeaveType: "annual", StartDate: "2025-03-03", EndDate: "2025-03-05", Reason: " trip "}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "trip", req.Reason)
	assert.Equal(t, date("2025-03-05"), req.EndDateValue)

	bad := CreateLeaveRequestRequest{LeaveType: "holiday", StartDate: "2025-03-05", EndDate: "2025-03-03"}
	err := bad.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "leave_type")
	assert.Contains(t, err.Error(), "end_date")
	assert.Contains(t, err.Error(), "reason")
}
