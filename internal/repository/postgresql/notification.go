package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const insertNotification = `
	INSERT INTO notifications (id, company_id, recipient_id, sender_id, type, title, message, data, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const notificationColumns = `id, company_id, recipient_id, sender_id, type, title, message, data, is_read, read_at, created_at`

func notificationArgs(n *notification.Notification) ([]any, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	var data []byte
	if n.Data != nil {
		var err error
		if data, err = json.Marshal(n.Data); err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
	}
	return []any{
		n.ID,
		n.CompanyID,
		n.RecipientID,
		n.SenderID,
		n.Type,
		n.Title,
		n.Message,
		data,
		n.IsRead,
		n.CreatedAt,
	}, nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var data []byte
	err := row.Scan(
		&n.ID,
		&n.CompanyID,
		&n.RecipientID,
		&n.SenderID,
		&n.Type,
		&n.Title,
		&n.Message,
		&data,
		&n.IsRead,
		&n.ReadAt,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, err
	}
	if data != nil {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}

func (r *notificationRepository) Insert(ctx context.Context, n *notification.Notification) error {
	args, err := notificationArgs(n)
	if err != nil {
		return err
	}
	if _, err := GetQuerier(ctx, r.db).Exec(ctx, insertNotification, args...); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// InsertMany queues every insert on one pgx batch.
func (r *notificationRepository) InsertMany(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range ns {
		args, err := notificationArgs(n)
		if err != nil {
			return err
		}
		batch.Queue(insertNotification, args...)
	}

	results := GetQuerier(ctx, r.db).SendBatch(ctx, batch)
	for range ns {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert notification batch: %w", err)
		}
	}
	return results.Close()
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter notification.ListFilter) ([]*notification.Notification, int64, error) {
	q := GetQuerier(ctx, r.db)
	filter.Normalize()

	w := newWhere()
	w.add("recipient_id = ?", recipientID)
	if filter.UnreadOnly {
		w.add("is_read = FALSE")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM notifications `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications ` + w.sql() +
		` ORDER BY created_at DESC, id` + w.page(filter.Page, filter.Limit)
	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*notification.Notification, 0, filter.Limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := GetQuerier(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead ignores ids that belong to someone else or are already read.
func (r *notificationRepository) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE recipient_id = $1 AND id = ANY($2) AND is_read = FALSE
	`, recipientID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE recipient_id = $1 AND is_read = FALSE
	`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete reports not found for ids owned by another user.
func (r *notificationRepository) Delete(ctx context.Context, recipientID, id string) error {
	tag, err := GetQuerier(ctx, r.db).Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

// ============= Preferences =============

const preferenceColumns = `id, user_id, notification_type, email_enabled, push_enabled, created_at, updated_at`

func scanPreference(row pgx.Row) (*notification.NotificationPreference, error) {
	var p notification.NotificationPreference
	err := row.Scan(&p.ID, &p.UserID, &p.NotificationType, &p.EmailEnabled, &p.PushEnabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrPreferenceNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *notificationRepository) ListPreferences(ctx context.Context, userID string) ([]*notification.NotificationPreference, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make([]*notification.NotificationPreference, 0)
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (r *notificationRepository) FindPreference(ctx context.Context, userID string, t notification.NotificationType) (*notification.NotificationPreference, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1 AND notification_type = $2`
	return scanPreference(q.QueryRow(ctx, query, userID, t))
}

func (r *notificationRepository) UpsertPreference(ctx context.Context, pref *notification.NotificationPreference) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, notification_type, email_enabled, push_enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT notification_preferences_user_type_key
		DO UPDATE SET email_enabled = EXCLUDED.email_enabled,
		              push_enabled = EXCLUDED.push_enabled,
		              updated_at = NOW()
	`, pref.UserID, pref.NotificationType, pref.EmailEnabled, pref.PushEnabled)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}
