// Package notify delivers short-lived user-facing messages.
//
// A [Sink] receives [Notification] values. Sinks never deduplicate: callers
// that must show a message once (session expiry, for example) enforce that
// themselves. A process-wide default sink makes notifications reachable from
// code that was never handed one explicitly; see [Show].
package notify

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goSession/apierror"
)

// DefaultTTL is how long a notification stays visible when none is set.
const DefaultTTL = 5 * time.Second

type Notification struct {
	ID        string            `json:"id"`
	Severity  apierror.Severity `json:"severity"`
	Message   string            `json:"message"`
	Key       string            `json:"key,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	TTL       time.Duration     `json:"ttl"`
}

// New returns a notification with a fresh ID, stamped now.
func New(severity apierror.Severity, key, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		Key:       key,
		CreatedAt: time.Now().UTC(),
	}
}

type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, n Notification)

func (f SinkFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

type NoOpSink struct{}

func (NoOpSink) Notify(context.Context, Notification) {}

type ChannelSink struct {
	ch chan Notification
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Notification, buffer)}
}

func (s *ChannelSink) Notify(ctx context.Context, n Notification) {
	select {
	case s.ch <- n:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Notifications() <-chan Notification {
	return s.ch
}

type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Notify(_ context.Context, n Notification) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(append(data, '\n'))
}

// Multi fans a notification out to every sink in order.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}
