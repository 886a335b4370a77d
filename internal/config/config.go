// Package config loads portal process settings from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	portalgate "github.com/MrEthical07/portalgate"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	// Host and Port form the listen address.
	Host string `mapstructure:"PORTAL_HOST"`
	Port int    `mapstructure:"PORTAL_PORT"`
	// WebRoot holds portal.html and the static/ directory.
	WebRoot string `mapstructure:"WEB_ROOT"`
	// TrustedProxies is a comma-separated CIDR/IP list whose X-Forwarded-For
	// is honoured when resolving the client IP. Empty trusts none.
	TrustedProxies string `mapstructure:"PORTAL_TRUSTED_PROXIES"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"PORTAL_SHUTDOWN_TIMEOUT"`

	SessionTTL   time.Duration `mapstructure:"PORTAL_SESSION_TTL"`
	TokenBytes   int           `mapstructure:"PORTAL_TOKEN_BYTES"`
	Sweep        string        `mapstructure:"PORTAL_SWEEP"`
	BindRemoteIP bool          `mapstructure:"PORTAL_BIND_REMOTE_IP"`

	// CredentialsFile is the YAML user table. Required when Env is production.
	CredentialsFile string `mapstructure:"PORTAL_CREDENTIALS_FILE"`

	// HMACKey signs X-Portal-Assertion (HS256). Empty disables assertions.
	HMACKey         string        `mapstructure:"PORTAL_HMAC_KEY"`
	AssertionTTL    time.Duration `mapstructure:"PORTAL_ASSERTION_TTL"`
	AssertionIssuer string        `mapstructure:"PORTAL_ASSERTION_ISSUER"`

	// RedisAddr enables the audit stream when set.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	AuditStream   string `mapstructure:"AUDIT_STREAM"`
	// AuditStdout additionally writes audit events as JSON lines to stdout.
	AuditStdout bool `mapstructure:"AUDIT_STDOUT"`
	// AuditBuffer is the dispatcher queue length. AuditDropIfFull drops
	// events instead of blocking requests when it is full.
	AuditBuffer     int  `mapstructure:"AUDIT_BUFFER"`
	AuditDropIfFull bool `mapstructure:"AUDIT_DROP_IF_FULL"`
	// AuditDeniedChecks audits every denied gateway check, not just counts it.
	AuditDeniedChecks bool `mapstructure:"AUDIT_DENIED_CHECKS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// Env is the application environment ("production" enables hardening).
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("PORTAL_HOST", "0.0.0.0")
	v.SetDefault("PORTAL_PORT", 8080)
	v.SetDefault("WEB_ROOT", "./web")
	v.SetDefault("PORTAL_TRUSTED_PROXIES", "")
	v.SetDefault("PORTAL_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("PORTAL_SESSION_TTL", "1h")
	v.SetDefault("PORTAL_TOKEN_BYTES", 32)
	v.SetDefault("PORTAL_SWEEP", "scan")
	v.SetDefault("PORTAL_BIND_REMOTE_IP", false)
	v.SetDefault("PORTAL_CREDENTIALS_FILE", "")
	v.SetDefault("PORTAL_HMAC_KEY", "")
	v.SetDefault("PORTAL_ASSERTION_TTL", "60s")
	v.SetDefault("PORTAL_ASSERTION_ISSUER", "portalgate")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AUDIT_STREAM", "portal:audit")
	v.SetDefault("AUDIT_STDOUT", false)
	v.SetDefault("AUDIT_BUFFER", 1024)
	v.SetDefault("AUDIT_DROP_IF_FULL", true)
	v.SetDefault("AUDIT_DENIED_CHECKS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORTAL_PORT must be 1-65535, got %d", cfg.Port)
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("config: PORTAL_SESSION_TTL must be > 0")
	}
	if cfg.AuditBuffer <= 0 {
		return nil, errors.New("config: AUDIT_BUFFER must be > 0")
	}
	if cfg.Production() && cfg.CredentialsFile == "" {
		return nil, errors.New("config: PORTAL_CREDENTIALS_FILE must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Production reports whether APP_ENV is production.
func (c *Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// AuditEnabled reports whether any audit sink is configured.
func (c *Config) AuditEnabled() bool {
	return c.RedisAddr != "" || c.AuditStdout
}

// TrustedProxyList splits TrustedProxies.
func (c *Config) TrustedProxyList() []string {
	if c == nil || c.TrustedProxies == "" {
		return nil
	}
	parts := strings.Split(c.TrustedProxies, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EngineConfig maps process settings onto the engine configuration. The
// result is validated.
func (c *Config) EngineConfig() (portalgate.Config, error) {
	cfg := portalgate.DefaultConfig()

	cfg.Session.TTL = c.SessionTTL
	cfg.Session.TokenBytes = c.TokenBytes
	cfg.Session.Sweep = c.Sweep

	if c.HMACKey != "" {
		cfg.Assertion.Enabled = true
		cfg.Assertion.SigningMethod = "hs256"
		cfg.Assertion.PrivateKey = []byte(c.HMACKey)
		cfg.Assertion.TTL = c.AssertionTTL
		cfg.Assertion.Issuer = c.AssertionIssuer
	}

	cfg.Audit.Enabled = c.AuditEnabled()
	cfg.Audit.BufferSize = c.AuditBuffer
	cfg.Audit.DropIfFull = c.AuditDropIfFull
	cfg.Audit.RecordDeniedChecks = c.AuditDeniedChecks

	cfg.Security.ProductionMode = c.Production()
	cfg.Security.BindRemoteIP = c.BindRemoteIP

	if err := cfg.Validate(); err != nil {
		return portalgate.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
