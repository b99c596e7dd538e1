package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/auth"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/validator"
)

var (
	unauthorizedErrors = []error{
		jwt.ErrMissingClaims,
		auth.ErrInvalidCredentials,
		auth.ErrInvalidToken,
		auth.ErrRefreshTokenRevoked,
		auth.ErrGoogleAccountNotRegistered,
	}

	forbiddenErrors = []error{
		user.ErrInsufficientPermissions,
		user.ErrCompanyIDRequired,
		user.ErrCannotDeleteSelf,
		employee.ErrEmployeeProfileOnly,
		employee.ErrEmployeeInactive,
		contractor.ErrContractorOnly,
		contractor.ErrContractorInactive,
		attendance.ErrEmployeeRequired,
		invoice.ErrContractorRequired,
	}

	notFoundErrors = []error{
		user.ErrUserNotFound,
		company.ErrCompanyNotFound,
		employee.ErrEmployeeNotFound,
		contractor.ErrContractorNotFound,
		attendance.ErrAttendanceNotFound,
		payroll.ErrPayrollSettingsNotFound,
		payroll.ErrPayrollComponentNotFound,
		payroll.ErrPayrollRecordNotFound,
		payroll.ErrEmployeeComponentNotFound,
		payroll.ErrEmployeeNotFound,
		payroll.ErrPayslipNotFound,
		leave.ErrLeaveRequestNotFound,
		leave.ErrLeaveQuotaNotFound,
		invoice.ErrInvoiceNotFound,
		notification.ErrNotificationNotFound,
		notification.ErrPreferenceNotFound,
	}

	conflictErrors = []error{
		user.ErrUserEmailExists,
		company.ErrJoinCodeExists,
		employee.ErrEmployeeCodeExists,
		attendance.ErrAlreadyCheckedIn,
		attendance.ErrAlreadyCheckedOut,
		payroll.ErrPayrollComponentNameExists,
		payroll.ErrPayrollRecordAlreadyExists,
		payroll.ErrInvalidStatusTransition,
		payroll.ErrCannotDeletePaidRecord,
		leave.ErrLeaveRequestAlreadyProcessed,
		leave.ErrOverlappingRequest,
		invoice.ErrInvalidStatusTransition,
		invoice.ErrInvoiceNotEditable,
	}

	badRequestErrors = []error{
		auth.ErrRoleNotRegistrable,
		auth.ErrInvalidCompanyCode,
		auth.ErrGoogleLoginDisabled,
		user.ErrInvalidEmailFormat,
		user.ErrInvalidPasswordLength,
		user.ErrIncorrectPassword,
		user.ErrInvalidAvatar,
		user.ErrAvatarTooLarge,
		company.ErrInvalidCompanyName,
		company.ErrInvalidTimezone,
		company.ErrInvalidWorkHours,
		employee.ErrNegativeSalary,
		contractor.ErrInvalidContractRange,
		attendance.ErrNotCheckedIn,
		attendance.ErrNotAWorkday,
		payroll.ErrInvalidPeriod,
		payroll.ErrNoEligibleEmployees,
		leave.ErrInsufficientQuota,
		leave.ErrNoWorkingDays,
		leave.ErrCrossYearRequest,
		invoice.ErrEmptyInvoice,
		notification.ErrInvalidNotificationType,
	}
)

func matches(err error, targets []error) (error, bool) {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}

// HandleError maps domain errors to HTTP responses. The message of the
// matched sentinel is returned to the client, never the wrapped chain.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	if target, ok := matches(err, unauthorizedErrors); ok {
		Unauthorized(w, target.Error())
		return
	}
	if target, ok := matches(err, forbiddenErrors); ok {
		Forbidden(w, target.Error())
		return
	}
	if target, ok := matches(err, notFoundErrors); ok {
		NotFound(w, target.Error())
		return
	}
	if target, ok := matches(err, conflictErrors); ok {
		Conflict(w, target.Error())
		return
	}
	if target, ok := matches(err, badRequestErrors); ok {
		BadRequest(w, target.Error(), nil)
		return
	}
	if errors.Is(err, notification.ErrServiceStopped) {
		ServiceUnavailable(w, notification.ErrServiceStopped.Error())
		return
	}

	slog.Error("unhandled error", "error", err)
	InternalServerError(w, "An unexpected error occurred")
}
