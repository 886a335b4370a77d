package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/portalgate"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream       = "portal:audit"
	DefaultMaxLen int64 = 100_000
	defaultTimeout      = 2 * time.Second
)

// Config configures a Sink. Zero values take the defaults above.
type Config struct {
	Stream  string
	MaxLen  int64
	Timeout time.Duration
	Logger  *slog.Logger
}

// Sink writes audit events to a Redis stream.
type Sink struct {
	client  redis.UniversalClient
	stream  string
	maxLen  int64
	timeout time.Duration
	logger  *slog.Logger

	written atomic.Uint64
	failed  atomic.Uint64
}

// New returns a sink writing through client.
func New(client redis.UniversalClient, cfg Config) (*Sink, error) {
	if client == nil {
		return nil, errors.New("redisstream: nil redis client")
	}
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = DefaultMaxLen
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sink{
		client:  client,
		stream:  cfg.Stream,
		maxLen:  cfg.MaxLen,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}, nil
}

// Emit implements portalgate.AuditSink. Write failures are counted and
// logged, never returned.
func (s *Sink) Emit(ctx context.Context, event portalgate.AuditEvent) {
	if s == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.failed.Add(1)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"type":    event.EventType,
			"success": strconv.FormatBool(event.Success),
			"event":   string(payload),
		},
	}).Err()
	if err != nil {
		s.failed.Add(1)
		s.logger.Warn("audit stream write failed",
			"stream", s.stream,
			"event_type", event.EventType,
			"error", err,
		)
		return
	}
	s.written.Add(1)
}

// Written is the number of events appended successfully.
func (s *Sink) Written() uint64 { return s.written.Load() }

// Failed is the number of events that could not be appended.
func (s *Sink) Failed() uint64 { return s.failed.Load() }

// Ping checks connectivity; used at startup.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
