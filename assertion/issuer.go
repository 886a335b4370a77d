package assertion

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported algorithm.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrInvalidAssertion is returned by Parse for any token that does not verify.
	ErrInvalidAssertion = errors.New("invalid assertion")
	// ErrSessionEnding is returned by Issue when the session expires within
	// the current second, so no representable exp would still be in the future.
	ErrSessionEnding = errors.New("session ends within the current second")
)

// Config configures an Issuer. For HS256 PrivateKey is the shared secret.
// For Ed25519 PrivateKey signs and PublicKey verifies; either may be raw
// bytes or PEM. A verify-only Issuer needs just PublicKey. Now defaults to
// time.Now and is used for both iat/exp and verification.
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	TTL           time.Duration
	Issuer        string
	Leeway        time.Duration
	Now           func() time.Time
}

// Claims is the assertion payload. Subject holds the username.
type Claims struct {
	IP  string `json:"ip,omitempty"`
	MAC string `json:"mac,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies assertions. Safe for concurrent use.
type Issuer struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	verKey  any
	now     func() time.Time
}

// NewIssuer validates cfg and parses keys once.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("assertion TTL must be > 0")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.SigningMethod = SigningMethod(strings.ToLower(string(cfg.SigningMethod)))

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	iss := &Issuer{config: cfg, now: now}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
		iss.method = jwt.SigningMethodHS256
		iss.signKey = cfg.PrivateKey
		iss.verKey = cfg.PrivateKey
	case MethodEd25519:
		iss.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			iss.signKey = priv
			iss.verKey = priv.Public()
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			iss.verKey = pub
		}
		if iss.verKey == nil {
			return nil, errors.New("ed25519 requires a private or public key")
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	return iss, nil
}

// CanSign reports whether the issuer holds a signing key.
func (i *Issuer) CanSign() bool {
	return i != nil && i.signKey != nil
}

// Issue signs an assertion for username. The expiry never outlives
// sessionExpiry. exp has whole-second precision, so a session in its last
// fraction of a second yields ErrSessionEnding rather than an already
// expired assertion.
func (i *Issuer) Issue(username, ip, mac string, sessionExpiry time.Time) (string, error) {
	if !i.CanSign() {
		return "", errors.New("assertion issuer has no signing key")
	}

	now := i.now()
	exp := now.Add(i.config.TTL)
	if !sessionExpiry.IsZero() && sessionExpiry.Before(exp) {
		exp = sessionExpiry
	}
	exp = exp.Truncate(jwt.TimePrecision)
	if !exp.After(now) {
		return "", ErrSessionEnding
	}

	claims := Claims{
		IP:  ip,
		MAC: mac,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	return jwt.NewWithClaims(i.method, claims).SignedString(i.signKey)
}

// Parse verifies token and returns its claims. Every failure is reported as
// ErrInvalidAssertion wrapping the underlying cause.
func (i *Issuer) Parse(token string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != i.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return i.verKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidAssertion
	}
	return claims, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
