package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/email"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/sse"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

// queued is a notification waiting for a worker, with the delivery
// channels resolved from the recipient's preferences at enqueue time.
type queued struct {
	req   notification.NotifyRequest
	inApp bool
	email bool
}

type service struct {
	repo   notification.Repository
	users  user.UserRepository
	mailer email.EmailService
	hub    *sse.Hub
	config Config
	now    func() time.Time

	// mu orders enqueues before Stop closes stopCh, so nothing is queued
	// after the workers drained.
	mu       sync.RWMutex
	queue    chan queued
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewNotificationService creates a new notification service with background
// workers. mailer may be nil, in which case email copies are never sent.
func NewNotificationService(repo notification.Repository, users user.UserRepository, mailer email.EmailService, hub *sse.Hub, cfg Config) notification.Service {
	s := newService(repo, users, mailer, hub, cfg)
	s.start()
	return s
}

func newService(repo notification.Repository, users user.UserRepository, mailer email.EmailService, hub *sse.Hub, cfg Config) *service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	return &service{
		repo:   repo,
		users:  users,
		mailer: mailer,
		hub:    hub,
		config: cfg,
		now:    time.Now,
		queue:  make(chan queued, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}
}

func (s *service) start() {
	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("notification service started",
		"workers", s.config.WorkerCount,
		"batch_size", s.config.BatchSize,
		"flush_interval", s.config.FlushInterval.String(),
	)
}

// worker drains the queue, writing batches when they fill up or when the
// flush interval elapses.
func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]queued, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.deliver(ctx, id, batch)
		batch = batch[:0]
	}

	for {
		select {
		case item := <-s.queue:
			batch = append(batch, item)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
		drain:
			for {
				select {
				case item := <-s.queue:
					batch = append(batch, item)
				default:
					break drain
				}
			}
			flush()
			return
		}
	}
}

func (s *service) deliver(ctx context.Context, workerID int, batch []queued) {
	notifications := make([]*notification.Notification, len(batch))
	stored := make([]*notification.Notification, 0, len(batch))
	for i, item := range batch {
		notifications[i] = s.newNotification(item.req)
		if item.inApp {
			stored = append(stored, notifications[i])
		}
	}

	inserted := true
	if len(stored) > 0 {
		if err := s.repo.InsertMany(ctx, stored); err != nil {
			slog.Error("failed to insert notification batch", "worker", workerID, "count", len(stored), "error", err)
			inserted = false
		} else {
			slog.Debug("inserted notifications", "worker", workerID, "count", len(stored))
		}
	}

	for i, n := range notifications {
		if batch[i].inApp && inserted {
			s.push(n)
		}
		if batch[i].email {
			s.sendEmail(ctx, n)
		}
	}
}

func (s *service) newNotification(req notification.NotifyRequest) *notification.Notification {
	return &notification.Notification{
		ID:          uuid.New().String(),
		CompanyID:   req.CompanyID,
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		IsRead:      false,
		CreatedAt:   s.now().UTC(),
	}
}

func (s *service) push(n *notification.Notification) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(n.RecipientID, sse.Event{
		ID:     n.ID,
		UserID: n.RecipientID,
		Event:  "notification",
		Data:   notification.NewNotificationResponse(n),
	})
}

func (s *service) sendEmail(ctx context.Context, n *notification.Notification) {
	if s.mailer == nil || s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		slog.Warn("failed to load notification recipient", "user_id", n.RecipientID, "error", err)
		return
	}
	if err := s.mailer.SendNotification(u.Email, u.Name, n.Title, n.Message); err != nil {
		slog.Warn("failed to send notification email", "user_id", n.RecipientID, "type", n.Type, "error", err)
	}
}

// channels resolves whether a notification type reaches the user in-app
// and by email. Without a stored preference in-app is on and email follows
// the type's default.
func (s *service) channels(ctx context.Context, userID string, t notification.NotificationType) (push bool, mail bool, err error) {
	pref, err := s.repo.FindPreference(ctx, userID, t)
	if err != nil {
		if errors.Is(err, notification.ErrPreferenceNotFound) {
			return true, t.EmailByDefault(), nil
		}
		return false, false, err
	}
	return pref.PushEnabled, pref.EmailEnabled, nil
}

// Notify resolves the recipient's channels and hands the notification to a
// worker. In-app and email delivery are decided independently. A full queue
// falls back to a synchronous write.
func (s *service) Notify(ctx context.Context, req notification.NotifyRequest) error {
	if req.RecipientID == "" {
		return notification.ErrMissingRecipient
	}
	if !req.Type.IsValid() {
		return notification.ErrInvalidNotificationType
	}

	inApp, mail, err := s.channels(ctx, req.RecipientID, req.Type)
	if err != nil {
		return err
	}
	if !inApp && !mail {
		return nil
	}
	item := queued{req: req, inApp: inApp, email: mail}

	s.mu.RLock()
	defer s.mu.RUnlock()
	select {
	case <-s.stopCh:
		return notification.ErrServiceStopped
	default:
	}

	select {
	case s.queue <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		slog.Warn("notification queue full, writing through", "type", req.Type)
		return s.writeThrough(ctx, item)
	}
}

func (s *service) NotifyMany(ctx context.Context, reqs []notification.NotifyRequest) error {
	for _, req := range reqs {
		if err := s.Notify(ctx, req); err != nil {
			if errors.Is(err, notification.ErrServiceStopped) {
				return err
			}
			slog.Warn("failed to queue notification", "recipient_id", req.RecipientID, "type", req.Type, "error", err)
		}
	}
	return nil
}

func (s *service) writeThrough(ctx context.Context, item queued) error {
	n := s.newNotification(item.req)
	if item.inApp {
		if err := s.repo.Insert(ctx, n); err != nil {
			return err
		}
		s.push(n)
	}
	if item.email {
		s.sendEmail(ctx, n)
	}
	return nil
}

func (s *service) List(ctx context.Context, recipientID string, filter notification.ListFilter) (*notification.NotificationListResponse, error) {
	filter.Normalize()

	items, total, err := s.repo.ListByRecipient(ctx, recipientID, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	out := make([]notification.NotificationResponse, len(items))
	for i, n := range items {
		out[i] = notification.NewNotificationResponse(n)
	}
	return &notification.NotificationListResponse{
		Notifications: out,
		UnreadCount:   unread,
		TotalCount:    total,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *service) MarkRead(ctx context.Context, recipientID string, req notification.MarkAsReadRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, recipientID, req.NotificationIDs)
}

func (s *service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}

func (s *service) Delete(ctx context.Context, recipientID, id string) error {
	return s.repo.Delete(ctx, recipientID, id)
}

// Preferences lists every notification type, filling in the defaults for
// types the user never changed.
func (s *service) Preferences(ctx context.Context, userID string) ([]notification.PreferenceResponse, error) {
	stored, err := s.repo.ListPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	byType := make(map[notification.NotificationType]*notification.NotificationPreference, len(stored))
	for _, p := range stored {
		byType[p.NotificationType] = p
	}

	types := notification.AllNotificationTypes()
	out := make([]notification.PreferenceResponse, len(types))
	for i, t := range types {
		out[i] = notification.PreferenceResponse{
			NotificationType: t,
			EmailEnabled:     t.EmailByDefault(),
			PushEnabled:      true,
		}
		if p, ok := byType[t]; ok {
			out[i].EmailEnabled = p.EmailEnabled
			out[i].PushEnabled = p.PushEnabled
		}
	}
	return out, nil
}

func (s *service) UpdatePreference(ctx context.Context, userID string, req notification.UpdatePreferenceRequest) (notification.PreferenceResponse, error) {
	if err := req.Validate(); err != nil {
		return notification.PreferenceResponse{}, err
	}
	err := s.repo.UpsertPreference(ctx, &notification.NotificationPreference{
		UserID:           userID,
		NotificationType: req.NotificationType,
		EmailEnabled:     req.EmailEnabled,
		PushEnabled:      req.PushEnabled,
		UpdatedAt:        s.now().UTC(),
	})
	if err != nil {
		return notification.PreferenceResponse{}, err
	}
	return notification.PreferenceResponse{
		NotificationType: req.NotificationType,
		EmailEnabled:     req.EmailEnabled,
		PushEnabled:      req.PushEnabled,
	}, nil
}

// Subscribe adapts the hub stream for one user. The channel closes when ctx
// ends or the hub drops the subscriber.
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.NotificationResponse)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop flushes pending notifications and waits for the workers to exit.
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.stopCh)
		s.mu.Unlock()
		s.wg.Wait()
		slog.Info("notification service stopped")
	})
}
