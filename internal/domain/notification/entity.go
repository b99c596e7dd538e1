package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLeaveRequest     NotificationType = "leave_request"
	TypeLeaveApproved    NotificationType = "leave_approved"
	TypeLeaveRejected    NotificationType = "leave_rejected"
	TypeLeaveCancelled   NotificationType = "leave_cancelled"
	TypePayrollGenerated NotificationType = "payroll_generated"
	TypePayrollApproved  NotificationType = "payroll_approved"
	TypePayrollRejected  NotificationType = "payroll_rejected"
	TypePayrollPaid      NotificationType = "payroll_paid"
	TypeInvoiceSubmitted NotificationType = "invoice_submitted"
	TypeInvoiceApproved  NotificationType = "invoice_approved"
	TypeInvoiceRejected  NotificationType = "invoice_rejected"
	TypeInvoicePaid      NotificationType = "invoice_paid"
	TypeAttendanceAbsent NotificationType = "attendance_absent"
	TypeMemberJoined     NotificationType = "member_joined"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeLeaveRequest,
		TypeLeaveApproved,
		TypeLeaveRejected,
		TypeLeaveCancelled,
		TypePayrollGenerated,
		TypePayrollApproved,
		TypePayrollRejected,
		TypePayrollPaid,
		TypeInvoiceSubmitted,
		TypeInvoiceApproved,
		TypeInvoiceRejected,
		TypeInvoicePaid,
		TypeAttendanceAbsent,
		TypeMemberJoined,
	}
}

func (t NotificationType) IsValid() bool {
	for _, known := range AllNotificationTypes() {
		if known == t {
			return true
		}
	}
	return false
}

// EmailByDefault reports whether the type sends an email copy when the
// recipient has no stored preference.
func (t NotificationType) EmailByDefault() bool {
	switch t {
	case TypePayrollPaid, TypeLeaveApproved, TypeLeaveRejected:
		return true
	}
	return false
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	CompanyID   *string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// NotificationPreference represents user preference for a notification type
type NotificationPreference struct {
	ID               string
	UserID           string
	NotificationType NotificationType
	EmailEnabled     bool
	PushEnabled      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
