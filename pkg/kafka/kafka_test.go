package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"webinars/pkg/logger"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("user@example.com").
		WithValue(map[string]string{"to": "user@example.com"}).
		WithEventType("email.requested").
		WithCorrelationID("req-1").
		WithSource("participations").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.GetEventID() == "" {
		t.Error("expected a generated event id")
	}
	if msg.GetEventType() != "email.requested" {
		t.Errorf("unexpected event type %q", msg.GetEventType())
	}
	if msg.GetCorrelationID() != "req-1" {
		t.Errorf("unexpected correlation id %q", msg.GetCorrelationID())
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected timestamp header")
	}

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil || decoded["to"] != "user@example.com" {
		t.Errorf("unexpected decoded value %v (%v)", decoded, err)
	}
}

func TestMessageBuilder_EncodeFailure(t *testing.T) {
	if _, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build(); err == nil {
		t.Fatal("expected encoding error")
	}
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	for range 12 {
		msg.IncrementRetryCount()
	}
	if msg.GetRetryCount() != 12 {
		t.Errorf("expected 12 retries, got %d", msg.GetRetryCount())
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypeUnknown},
		{name: "tagged transient", err: NewTransientError("smtp", errors.New("421")), want: ErrorTypeTransient},
		{name: "tagged permanent", err: fmt.Errorf("wrap: %w", NewPermanentError("decode", errors.New("bad json"))), want: ErrorTypePermanent},
		{name: "deadline", err: fmt.Errorf("send: %w", context.DeadlineExceeded), want: ErrorTypeTransient},
		{name: "network text", err: errors.New("dial tcp: Connection Refused"), want: ErrorTypeTransient},
		{name: "unknown", err: errors.New("schema mismatch"), want: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "notifications", log: logger.Discard()}

	var seenTopic string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		seenTopic = msg.Topic
		return next(ctx, msg)
	})

	msg, _ := NewMessage().WithKey("k").WithValue("v").Build()
	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenTopic != "notifications" {
		t.Errorf("middleware should see the producer topic, got %q", seenTopic)
	}
	if len(w.messages) != 1 || string(w.messages[0].Key) != "k" {
		t.Fatalf("unexpected written messages %+v", w.messages)
	}

	if err := p.Publish(context.Background(), Message{Value: []byte("v")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}

	_ = p.Close()
	if err := p.Publish(context.Background(), msg); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
	if !w.closed {
		t.Error("expected writer to be closed")
	}
}

func TestProducer_PublishFailureGoesToDLQ(t *testing.T) {
	writeErr := errors.New("broker unavailable")
	dlq := &fakeWriter{}
	p := &Producer{writer: &fakeWriter{err: writeErr}, dlqWriter: dlq, topic: "notifications", log: logger.Discard()}

	msg, _ := NewMessage().WithKey("k").WithValue("v").Build()
	err := p.Publish(context.Background(), msg)
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected original error, got %v", err)
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.messages))
	}
	if header(dlq.messages[0], HeaderOriginalTopic) != "notifications" {
		t.Errorf("expected original topic header")
	}
	if _, ok := msg.Headers[HeaderDLQError]; ok {
		t.Errorf("DLQ headers must not leak into the caller's message")
	}
}

func newTestConsumer(handler MessageHandler, dlq *fakeWriter, maxRetries int) *Consumer {
	c := &Consumer{
		topic:        "notifications",
		groupID:      "notifier",
		maxRetries:   maxRetries,
		retryBackoff: time.Millisecond,
		handler:      handler,
		log:          logger.Discard(),
	}
	if dlq != nil {
		c.dlqWriter = dlq
	}
	return c
}

func TestConsumer_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	c := newTestConsumer(func(context.Context, Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("smtp", errors.New("try later"))
		}
		return nil
	}, &fakeWriter{}, 3)

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestConsumer_PermanentErrorGoesToDLQWithoutRetry(t *testing.T) {
	calls := 0
	dlq := &fakeWriter{}
	c := newTestConsumer(func(context.Context, Message) error {
		calls++
		return NewPermanentError("decode", errors.New("bad json"))
	}, dlq, 5)

	err := c.processMessage(context.Background(), Message{Key: "k", Value: []byte("{"), Headers: map[string]string{}})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("permanent errors must not be retried, got %d attempts", calls)
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.messages))
	}
	if header(dlq.messages[0], "dlq-consumer-group") != "notifier" {
		t.Errorf("expected consumer group header on DLQ message")
	}
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	calls := 0
	dlq := &fakeWriter{}
	c := newTestConsumer(func(context.Context, Message) error {
		calls++
		return NewTransientError("smtp", errors.New("try later"))
	}, dlq, 2)

	if err := c.processMessage(context.Background(), Message{Key: "k", Headers: map[string]string{}}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 1 attempt plus 2 retries, got %d", calls)
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.messages))
	}
	if header(dlq.messages[0], HeaderRetryCount) != "3" {
		t.Errorf("expected retry count 3, got %q", header(dlq.messages[0], HeaderRetryCount))
	}
}

func TestConsumer_MiddlewareOrder(t *testing.T) {
	var order []string
	c := newTestConsumer(func(context.Context, Message) error {
		order = append(order, "handler")
		return nil
	}, nil, 0)
	for _, name := range []string{"outer", "inner"} {
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(order) != "[outer inner handler]" {
		t.Errorf("unexpected order %v", order)
	}
}

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_Start_CommitsHandledAndDeadLettered(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Topic: "notifications", Offset: 1, Value: []byte("ok")},
		{Topic: "notifications", Offset: 2, Value: []byte("bad")},
	}}
	dlq := &fakeWriter{}
	c := newTestConsumer(func(_ context.Context, msg Message) error {
		if string(msg.Value) == "bad" {
			return NewPermanentError("decode", errors.New("bad json"))
		}
		return nil
	}, dlq, 0)
	c.reader = reader

	if err := c.Start(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Start to stop when fetching is cancelled, got %v", err)
	}
	if len(reader.committed) != 2 {
		t.Errorf("expected both offsets committed, got %d", len(reader.committed))
	}
	if len(dlq.messages) != 1 {
		t.Errorf("expected 1 DLQ message, got %d", len(dlq.messages))
	}
}

func TestConsumer_Start_LeavesUndeliveredMessageUncommitted(t *testing.T) {
	tests := []struct {
		name string
		dlq  *fakeWriter
	}{
		{name: "no dlq", dlq: nil},
		{name: "dlq write fails", dlq: &fakeWriter{err: errors.New("broker down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{messages: []kafka.Message{
				{Topic: "notifications", Offset: 7, Value: []byte("bad")},
				{Topic: "notifications", Offset: 8, Value: []byte("ok")},
			}}
			handled := 0
			c := newTestConsumer(func(_ context.Context, msg Message) error {
				handled++
				return NewPermanentError("decode", errors.New("bad json"))
			}, tt.dlq, 0)
			c.reader = reader

			err := c.Start(context.Background())
			if !errors.Is(err, ErrMessageUndelivered) {
				t.Fatalf("expected ErrMessageUndelivered, got %v", err)
			}
			if len(reader.committed) != 0 {
				t.Errorf("undelivered message was committed: %+v", reader.committed)
			}
			if handled != 1 {
				t.Errorf("expected consumption to stop at the undelivered message, handled %d", handled)
			}
		})
	}
}
