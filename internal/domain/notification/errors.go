package notification

import "errors"

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrMissingRecipient        = errors.New("notification recipient is required")
	ErrPreferenceNotFound      = errors.New("notification preference not found")
	ErrServiceStopped          = errors.New("notification service is shutting down")
)
