package notification

import "context"

// Service fans notifications out to their recipient through the in-app
// feed, the live stream and, when the preference allows, email.
type Service interface {
	// Notify enqueues one notification for background delivery.
	Notify(ctx context.Context, req NotifyRequest) error
	// NotifyMany enqueues each request and logs the ones that fail.
	NotifyMany(ctx context.Context, reqs []NotifyRequest) error

	List(ctx context.Context, recipientID string, filter ListFilter) (*NotificationListResponse, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID string, req MarkAsReadRequest) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, recipientID, id string) error

	Preferences(ctx context.Context, userID string) ([]PreferenceResponse, error)
	UpdatePreference(ctx context.Context, userID string, req UpdatePreferenceRequest) (PreferenceResponse, error)

	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())
	Stop()
}
