package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/auth"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", auth.ErrInvalidCredentials.Error()},
		{"wrong role", user.ErrInsufficientPermissions, http.StatusForbidden, "FORBIDDEN", user.ErrInsufficientPermissions.Error()},
		{"wrapped not found", fmt.Errorf("get record: %w", payroll.ErrPayrollRecordNotFound), http.StatusNotFound, "NOT_FOUND", payroll.ErrPayrollRecordNotFound.Error()},
		{"double check in", attendance.ErrAlreadyCheckedIn, http.StatusConflict, "CONFLICT", attendance.ErrAlreadyCheckedIn.Error()},
		{"quota", leave.ErrInsufficientQuota, http.StatusBadRequest, "BAD_REQUEST", leave.ErrInsufficientQuota.Error()},
		{"shutting down", notification.ErrServiceStopped, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", notification.ErrServiceStopped.Error()},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
		})
	}
}

func TestHandleError_Validation(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("register: %w", validator.ValidationErrors{
		{Field: "email", Message: "email is required"},
	})

	HandleError(rec, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "email is required", body.Error.Details["email"])
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(41), meta.TotalItems)

	assert.Equal(t, 0, NewMeta(1, 20, 0).TotalPages)
}

func TestFile(t *testing.T) {
	rec := httptest.NewRecorder()
	File(rec, "payroll-2025-03.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte("xlsx"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="payroll-2025-03.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, "xlsx", rec.Body.String())
}
