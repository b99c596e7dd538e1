// Package events publishes domain events for downstream consumers
// (accounting exports, analytics). Publishing is best effort: the request
// that caused the event never fails because a broker is down.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

type Type string

const (
	PayrollGenerated  Type = "payroll.generated"
	PayrollApproved   Type = "payroll.approved"
	PayrollRejected   Type = "payroll.rejected"
	PayrollPaid       Type = "payroll.paid"
	InvoiceSubmitted  Type = "invoice.submitted"
	InvoiceApproved   Type = "invoice.approved"
	InvoiceRejected   Type = "invoice.rejected"
	InvoicePaid       Type = "invoice.paid"
	LeaveRequested    Type = "leave.requested"
	LeaveApproved     Type = "leave.approved"
	LeaveRejected     Type = "leave.rejected"
	AttendanceChecked Type = "attendance.checked"
	UserRegistered    Type = "user.registered"
)

// Event is the envelope written to the topic. Key is used for partitioning
// so all events of one aggregate stay ordered.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Key        string    `json:"key"`
	CompanyID  string    `json:"company_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// New builds an event with a fresh id and the current time.
func New(t Type, key, companyID string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Key:        key,
		CompanyID:  companyID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, ...Event) error { return nil }
func (noopPublisher) Close() error                            { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// inflight counts background publishes so Close can wait for them.
type inflight struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

func (f *inflight) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.wg.Add(1)
	return true
}

func (f *inflight) end() { f.wg.Done() }

// drain refuses new publishes and waits for the running ones.
func (f *inflight) drain() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.wg.Wait()
}

type kafkaPublisher struct {
	inflight
	writer messageWriter
	topic  string
}

// NewKafkaPublisher writes events to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &kafkaPublisher{writer: writer, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(e.Key),
			Value: payload,
			Headers: []kafkago.Header{
				{Key: "event_type", Value: []byte(e.Type)},
				{Key: "event_id", Value: []byte(e.ID)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write events to %s: %w", p.topic, err)
	}
	return nil
}

// Close waits for publishes started by PublishAsync before closing the writer.
func (p *kafkaPublisher) Close() error {
	p.drain()
	return p.writer.Close()
}

type tracker interface {
	begin() bool
	end()
}

// PublishAsync publishes in the background with its own timeout and only
// logs failures. Publishers that track background work drop events once
// closed.
func PublishAsync(p Publisher, events ...Event) {
	if p == nil || len(events) == 0 {
		return
	}
	t, tracked := p.(tracker)
	if tracked && !t.begin() {
		slog.Warn("publisher closed, dropping domain events", "count", len(events), "type", events[0].Type)
		return
	}
	go func() {
		if tracked {
			defer t.end()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, events...); err != nil {
			slog.Warn("failed to publish domain events", "count", len(events), "type", events[0].Type, "error", err)
		}
	}()
}
