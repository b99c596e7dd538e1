package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	msgs    []kafkago.Message
	err     error
	closed  bool
	release chan struct{}
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.release != nil {
		<-w.release
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &kafkaPublisher{writer: w, topic: "payroll.events"}

	ev := New(PayrollPaid, "rec-1", "co-1", map[string]string{"net_salary": "4500.00"})
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, []byte("rec-1"), msg.Key)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("payroll.paid"), msg.Headers[0].Value)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, "co-1", decoded.CompanyID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := &kafkaPublisher{writer: &fakeWriter{err: boom}, topic: "t"}

	err := p.Publish(context.Background(), New(InvoicePaid, "inv-1", "", nil))
	assert.ErrorIs(t, err, boom)
}

func TestKafkaPublisher_EmptyIsNoop(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	p := &kafkaPublisher{writer: w, topic: "t"}
	assert.NoError(t, p.Publish(context.Background()))
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()
	assert.NoError(t, p.Publish(context.Background(), New(LeaveApproved, "l1", "c1", nil)))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisher_CloseWaitsForAsyncPublishes(t *testing.T) {
	w := &fakeWriter{release: make(chan struct{})}
	p := &kafkaPublisher{writer: w, topic: "payroll.events"}

	PublishAsync(p, New(PayrollPaid, "rec-1", "co-1", nil))

	closed := make(chan struct{})
	go func() {
		assert.NoError(t, p.Close())
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the pending publish finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(w.release)
	<-closed

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.msgs, 1)
	assert.True(t, w.closed)
}

func TestPublishAsync_AfterCloseDrops(t *testing.T) {
	w := &fakeWriter{}
	p := &kafkaPublisher{writer: w, topic: "t"}
	require.NoError(t, p.Close())

	PublishAsync(p, New(InvoicePaid, "inv-1", "co-1", nil))
	time.Sleep(10 * time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.msgs)
}
