package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/email"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/sse"
)

type fakeRepo struct {
	notification.Repository
	mu      sync.Mutex
	stored  []*notification.Notification
	prefs   map[notification.NotificationType]*notification.NotificationPreference
	batches int
}

func (f *fakeRepo) FindPreference(ctx context.Context, userID string, t notification.NotificationType) (*notification.NotificationPreference, error) {
	if p, ok := f.prefs[t]; ok {
		return p, nil
	}
	return nil, notification.ErrPreferenceNotFound
}

func (f *fakeRepo) ListPreferences(ctx context.Context, userID string) ([]*notification.NotificationPreference, error) {
	var out []*notification.NotificationPreference
	for _, p := range f.prefs {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) InsertMany(ctx context.Context, ns []*notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	f.stored = append(f.stored, ns...)
	return nil
}

func (f *fakeRepo) Insert(ctx context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, n)
	return nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, stored := range f.stored {
		if stored.RecipientID != recipientID || stored.IsRead {
			continue
		}
		for _, id := range ids {
			if stored.ID == id {
				stored.IsRead = true
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeRepo) ListByRecipient(ctx context.Context, recipientID string, filter notification.ListFilter) ([]*notification.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*notification.Notification
	for _, n := range f.stored {
		if n.RecipientID == recipientID && (!filter.UnreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, stored := range f.stored {
		if stored.RecipientID == recipientID && !stored.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeUsers struct {
	user.UserRepository
}

func (fakeUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	return user.User{ID: id, Name: "Dana", Email: id + "@example.com"}, nil
}

type sentMail struct {
	to, title string
}

type fakeMailer struct {
	email.EmailService
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) SendNotification(to, recipientName, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, title: title})
	return nil
}

func newTestService(repo *fakeRepo, mailer *fakeMailer, hub *sse.Hub, cfg Config) *service {
	if repo.prefs == nil {
		repo.prefs = map[notification.NotificationType]*notification.NotificationPreference{}
	}
	var m email.EmailService
	if mailer != nil {
		m = mailer
	}
	return newService(repo, fakeUsers{}, m, hub, cfg)
}

func TestNotify_FlushesOnStop(t *testing.T) {
	repo := &fakeRepo{}
	mailer := &fakeMailer{}
	svc := newTestService(repo, mailer, sse.NewHub(), Config{FlushInterval: time.Hour, WorkerCount: 1})
	svc.start()

	ctx := context.Background()
	require.NoError(t, svc.Notify(ctx, notification.NotifyRequest{
		RecipientID: "u1",
		Type:        notification.TypePayrollPaid,
		Title:       "Salary paid",
		Message:     "Your March salary was paid.",
	}))
	require.NoError(t, svc.Notify(ctx, notification.NotifyRequest{
		RecipientID: "u2",
		Type:        notification.TypeInvoiceSubmitted,
		Title:       "Invoice submitted",
	}))
	svc.Stop()

	require.Len(t, repo.stored, 2)
	assert.Equal(t, 1, repo.batches)
	assert.False(t, repo.stored[0].IsRead)
	assert.NotEmpty(t, repo.stored[0].ID)

	// payroll_paid mails by default, invoice_submitted does not
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "u1@example.com", mailer.sent[0].to)
	assert.Equal(t, "Salary paid", mailer.sent[0].title)
}

func TestNotify_RespectsPreferences(t *testing.T) {
	repo := &fakeRepo{prefs: map[notification.NotificationType]*notification.NotificationPreference{
		notification.TypeLeaveApproved: {NotificationType: notification.TypeLeaveApproved, PushEnabled: false, EmailEnabled: true},
		notification.TypeLeaveRequest:  {NotificationType: notification.TypeLeaveRequest, PushEnabled: true, EmailEnabled: true},
	}}
	mailer := &fakeMailer{}
	svc := newTestService(repo, mailer, nil, Config{FlushInterval: time.Hour, WorkerCount: 1})
	svc.start()

	ctx := context.Background()
	require.NoError(t, svc.Notify(ctx, notification.NotifyRequest{RecipientID: "u1", Type: notification.TypeLeaveApproved, Title: "approved"}))
	require.NoError(t, svc.Notify(ctx, notification.NotifyRequest{RecipientID: "u1", Type: notification.TypeLeaveRequest, Title: "request"}))
	svc.Stop()

	// leave_approved is email only: not stored, but still mailed.
	require.Len(t, repo.stored, 1)
	assert.Equal(t, notification.TypeLeaveRequest, repo.stored[0].Type)
	require.Len(t, mailer.sent, 2)
	assert.ElementsMatch(t, []string{"approved", "request"}, []string{mailer.sent[0].title, mailer.sent[1].title})
}

func TestNotify_EmailOnlyWritesThrough(t *testing.T) {
	repo := &fakeRepo{prefs: map[notification.NotificationType]*notification.NotificationPreference{
		notification.TypePayrollPaid: {NotificationType: notification.TypePayrollPaid, PushEnabled: false, EmailEnabled: true},
	}}
	mailer := &fakeMailer{}
	svc := newTestService(repo, mailer, nil, Config{QueueSize: 1})

	req := notification.NotifyRequest{RecipientID: "u1", Type: notification.TypePayrollPaid, Title: "Salary paid"}
	require.NoError(t, svc.Notify(context.Background(), req))
	require.NoError(t, svc.Notify(context.Background(), req))

	assert.Empty(t, repo.stored)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "u1@example.com", mailer.sent[0].to)
}

func TestNotify_ConcurrentWithStop(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil, nil, Config{FlushInterval: time.Hour, WorkerCount: 2})
	svc.start()

	var accepted sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 50; i++ {
		accepted.Add(1)
		go func() {
			defer accepted.Done()
			err := svc.Notify(context.Background(), notification.NotifyRequest{RecipientID: "u1", Type: notification.TypeMemberJoined, Title: "joined"})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	svc.Stop()
	accepted.Wait()

	// Every accepted notification was written before Stop returned.
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.stored, ok)
}

func TestNotify_RejectsUnknownType(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil, Config{})
	err := svc.Notify(context.Background(), notification.NotifyRequest{RecipientID: "u1", Type: "bogus"})
	assert.ErrorIs(t, err, notification.ErrInvalidNotificationType)
}

func TestNotify_FullQueueWritesThrough(t *testing.T) {
	repo := &fakeRepo{}
	hub := sse.NewHub()
	events, cleanup := hub.Subscribe("u1")
	defer cleanup()

	// Workers are never started, so the one-slot queue fills immediately.
	svc := newTestService(repo, nil, hub, Config{QueueSize: 1})
	req := notification.NotifyRequest{RecipientID: "u1", Type: notification.TypeMemberJoined, Title: "joined"}
	require.NoError(t, svc.Notify(context.Background(), req))
	require.NoError(t, svc.Notify(context.Background(), req))

	require.Len(t, repo.stored, 1)
	select {
	case ev := <-events:
		assert.Equal(t, "notification", ev.Event)
		resp, ok := ev.Data.(notification.NotificationResponse)
		require.True(t, ok)
		assert.Equal(t, "joined", resp.Title)
	case <-time.After(time.Second):
		t.Fatal("expected a pushed event")
	}
}

func TestPreferences_FillsDefaults(t *testing.T) {
	repo := &fakeRepo{prefs: map[notification.NotificationType]*notification.NotificationPreference{
		notification.TypePayrollPaid: {NotificationType: notification.TypePayrollPaid, PushEnabled: true, EmailEnabled: false},
	}}
	svc := newTestService(repo, nil, nil, Config{})

	prefs, err := svc.Preferences(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, prefs, len(notification.AllNotificationTypes()))

	byType := map[notification.NotificationType]notification.PreferenceResponse{}
	for _, p := range prefs {
		byType[p.NotificationType] = p
	}
	assert.False(t, byType[notification.TypePayrollPaid].EmailEnabled)
	assert.True(t, byType[notification.TypeLeaveRejected].EmailEnabled)
	assert.False(t, byType[notification.TypeInvoicePaid].EmailEnabled)
	assert.True(t, byType[notification.TypeInvoicePaid].PushEnabled)
}

func TestNotify_RequiresRecipient(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil, Config{})
	err := svc.Notify(context.Background(), notification.NotifyRequest{Type: notification.TypePayrollPaid})
	assert.ErrorIs(t, err, notification.ErrMissingRecipient)
}

func TestNotify_AfterStop(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil, nil, Config{WorkerCount: 1})
	svc.start()
	svc.Stop()

	req := notification.NotifyRequest{RecipientID: "u1", Type: notification.TypeInvoicePaid, Title: "paid"}
	assert.ErrorIs(t, svc.Notify(context.Background(), req), notification.ErrServiceStopped)
	assert.ErrorIs(t, svc.NotifyMany(context.Background(), []notification.NotifyRequest{req}), notification.ErrServiceStopped)
}

func TestMarkReadAndList(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, nil, nil, Config{FlushInterval: time.Hour, WorkerCount: 1})
	svc.start()

	ctx := context.Background()
	for _, title := range []string{"first", "second"} {
		require.NoError(t, svc.Notify(ctx, notification.NotifyRequest{RecipientID: "u1", Type: notification.TypeLeaveRequest, Title: title}))
	}
	require.NoError(t, svc.Notify(ctx, notification.NotifyRequest{RecipientID: "u2", Type: notification.TypeLeaveRequest, Title: "other"}))
	svc.Stop()

	_, err := svc.MarkRead(ctx, "u1", notification.MarkAsReadRequest{NotificationIDs: []string{"not-a-uuid"}})
	assert.Error(t, err)

	var firstID string
	for _, n := range repo.stored {
		if n.Title == "first" {
			firstID = n.ID
		}
	}
	updated, err := svc.MarkRead(ctx, "u2", notification.MarkAsReadRequest{NotificationIDs: []string{firstID}})
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)

	updated, err = svc.MarkRead(ctx, "u1", notification.MarkAsReadRequest{NotificationIDs: []string{firstID}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	list, err := svc.List(ctx, "u1", notification.ListFilter{UnreadOnly: true, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Limit)
	assert.EqualValues(t, 1, list.UnreadCount)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "second", list.Notifications[0].Title)
}
