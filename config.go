package portalgate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/portalgate/session"
)

// Config holds every engine tunable. Build clones it, so callers may reuse
// or mutate their copy afterwards.
type Config struct {
	Session   SessionConfig
	Password  PasswordConfig
	Assertion AssertionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	TTL        time.Duration
	TokenBytes int
	Sweep      string // "scan" (default) or "heap"
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id parameters for hashing portal credentials.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
ASSERTION CONFIG
====================================
*/

// AssertionConfig controls the signed identity assertion attached to allowed
// gateway checks.
type AssertionConfig struct {
	Enabled       bool
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	TTL           time.Duration
	Issuer        string
}

// AuditConfig controls the asynchronous audit dispatcher. Denied checks are
// counted in metrics; RecordDeniedChecks also audits each one.
type AuditConfig struct {
	Enabled            bool
	BufferSize         int
	DropIfFull         bool
	RecordDeniedChecks bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds deployment-level switches.
type SecurityConfig struct {
	ProductionMode bool
	// BindRemoteIP binds new sessions to the connection's address when the
	// login form does not carry an ip field.
	BindRemoteIP bool
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:        session.DefaultTTL,
			TokenBytes: session.DefaultTokenBytes,
			Sweep:      string(session.SweepScan),
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Assertion: AssertionConfig{
			Enabled:       false,
			SigningMethod: "hs256",
			TTL:           time.Minute,
			Issuer:        "portalgate",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Security: SecurityConfig{
			ProductionMode: false,
			BindRemoteIP:   false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Assertion.PrivateKey = cloneBytes(cfg.Assertion.PrivateKey)
	out.Assertion.PublicKey = cloneBytes(cfg.Assertion.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting, if any.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TokenBytes < session.MinTokenBytes {
		return fmt.Errorf("Session TokenBytes must be >= %d", session.MinTokenBytes)
	}
	if _, err := session.ParseSweepStrategy(c.Session.Sweep); err != nil {
		return fmt.Errorf("Session Sweep: %w", err)
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Assertion
	if c.Assertion.Enabled {
		method := strings.ToLower(c.Assertion.SigningMethod)
		if method != "hs256" && method != "ed25519" {
			return errors.New("unsupported Assertion signing method")
		}
		if len(c.Assertion.PrivateKey) == 0 {
			return fmt.Errorf("%s assertions require PrivateKey", method)
		}
		if method == "hs256" && len(c.Assertion.PrivateKey) < 32 {
			return errors.New("hs256 assertion key must be >= 32 bytes")
		}
		if c.Assertion.TTL <= 0 {
			return errors.New("Assertion TTL must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	// Security
	if c.Security.ProductionMode && c.Session.TokenBytes < session.DefaultTokenBytes {
		return fmt.Errorf("ProductionMode requires Session TokenBytes >= %d", session.DefaultTokenBytes)
	}

	return nil
}
