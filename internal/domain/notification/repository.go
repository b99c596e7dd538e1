package notification

import "context"

// Repository stores notifications and per-user delivery preferences. Every
// read and write on a notification is scoped to its recipient.
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	InsertMany(ctx context.Context, ns []*Notification) error
	ListByRecipient(ctx context.Context, recipientID string, filter ListFilter) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, recipientID, id string) error

	ListPreferences(ctx context.Context, userID string) ([]*NotificationPreference, error)
	FindPreference(ctx context.Context, userID string, t NotificationType) (*NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref *NotificationPreference) error
}
