package portalgate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent is one portal security event. SessionID carries a masked token,
// never the full value.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Username  string            `json:"username,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	MAC       string            `json:"mac,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// MultiSink fans each event out to every non-nil sink in order.
type MultiSink []AuditSink

func (m MultiSink) Emit(ctx context.Context, event AuditEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}
