package portalgate

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/portalgate/assertion"
	"github.com/MrEthical07/portalgate/session"
)

// Builder assembles an Engine. A Builder may be used once.
type Builder struct {
	config Config

	verifier  CredentialVerifier
	auditSink AuditSink
	clock     session.Clock

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCredentialVerifier sets the login backend. Required.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink sets where audit events go when Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source for sessions and audit timestamps.
func (b *Builder) WithClock(c session.Clock) *Builder {
	b.clock = c
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the check latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the engine and its
// session store.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.verifier == nil {
		return nil, errors.New("credential verifier required")
	}

	clock := b.clock
	if clock == nil {
		clock = session.SystemClock
	}

	// -------- SESSION STORE --------
	store, err := session.NewStore(session.Options{
		TTL:        cfg.Session.TTL,
		TokenBytes: cfg.Session.TokenBytes,
		Sweep:      session.SweepStrategy(cfg.Session.Sweep),
		Clock:      clock,
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	engine := &Engine{
		config:   cloneConfig(cfg),
		store:    store,
		verifier: b.verifier,
		clock:    clock,
	}

	// -------- ASSERTIONS --------
	if cfg.Assertion.Enabled {
		iss, err := assertion.NewIssuer(assertion.Config{
			SigningMethod: assertion.SigningMethod(cfg.Assertion.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Assertion.PrivateKey),
			PublicKey:     cloneBytes(cfg.Assertion.PublicKey),
			TTL:           cfg.Assertion.TTL,
			Issuer:        cfg.Assertion.Issuer,
			Now:           clock.Now,
		})
		if err != nil {
			return nil, fmt.Errorf("assertion issuer: %w", err)
		}
		engine.assertions = iss
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
