package portalgate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errBackendDown = errors.New("directory unreachable")

// testVerifier accepts alice/wonderland, fails "broken" with a backend error
// and rejects everything else.
var testVerifier = CredentialVerifierFunc(func(_ context.Context, username, password string) error {
	switch {
	case username == "broken":
		return errBackendDown
	case username == "alice" && password == "wonderland":
		return nil
	default:
		return ErrInvalidCredentials
	}
})

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *captureSink) next(t *testing.T) AuditEvent {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit event to be received")
		return AuditEvent{}
	}
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.TTL = time.Hour
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func buildTestEngine(t *testing.T, cfg Config, sink AuditSink) (*Engine, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	engine, err := New().
		WithConfig(cfg).
		WithCredentialVerifier(testVerifier).
		WithAuditSink(sink).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}
