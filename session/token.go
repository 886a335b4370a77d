package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultTokenBytes yields 64 hex characters.
	DefaultTokenBytes = 32
	// MinTokenBytes is the 128-bit entropy floor.
	MinTokenBytes = 16
)

// ErrEntropyFailure is carried in the panic raised when the random source
// cannot produce token bytes.
var ErrEntropyFailure = errors.New("session: entropy source failure")

// Generator produces fixed-width opaque tokens: hex of n random bytes.
type Generator struct {
	bytes  int
	reader io.Reader
}

// NewGenerator returns a generator backed by crypto/rand.
func NewGenerator(n int) (*Generator, error) {
	return newGenerator(n, rand.Reader)
}

func newGenerator(n int, r io.Reader) (*Generator, error) {
	if n < MinTokenBytes {
		return nil, fmt.Errorf("session: token length must be >= %d bytes, got %d", MinTokenBytes, n)
	}
	if r == nil {
		return nil, errors.New("session: nil random source")
	}
	return &Generator{bytes: n, reader: r}, nil
}

// TokenLen is the length of every token in characters.
func (g *Generator) TokenLen() int {
	return hex.EncodedLen(g.bytes)
}

// Token returns a fresh token. It panics if the random source fails: a portal
// that cannot produce unguessable tokens must not keep issuing sessions.
func (g *Generator) Token() string {
	buf := make([]byte, g.bytes)
	if _, err := io.ReadFull(g.reader, buf); err != nil {
		panic(fmt.Errorf("%w: %v", ErrEntropyFailure, err))
	}
	return hex.EncodeToString(buf)
}
