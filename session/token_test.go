package session

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestGeneratorTokenShape(t *testing.T) {
	g, err := NewGenerator(DefaultTokenBytes)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if g.TokenLen() != 64 {
		t.Fatalf("expected token length 64, got %d", g.TokenLen())
	}

	tok := g.Token()
	if len(tok) != g.TokenLen() {
		t.Fatalf("expected %d chars, got %d", g.TokenLen(), len(tok))
	}
	if _, err := hex.DecodeString(tok); err != nil {
		t.Fatalf("token is not hex: %v", err)
	}
	if strings.ToLower(tok) != tok {
		t.Fatalf("expected lowercase hex, got %q", tok)
	}
}

func TestGeneratorRejectsShortTokens(t *testing.T) {
	if _, err := NewGenerator(MinTokenBytes - 1); err == nil {
		t.Fatal("expected error for token below entropy floor")
	}
	if _, err := newGenerator(MinTokenBytes, nil); err == nil {
		t.Fatal("expected error for nil reader")
	}
}

func TestGeneratorUsesReaderBytes(t *testing.T) {
	src := bytes.Repeat([]byte{0xab}, MinTokenBytes)
	g, err := newGenerator(MinTokenBytes, bytes.NewReader(src))
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}
	if got, want := g.Token(), strings.Repeat("ab", MinTokenBytes); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGeneratorPanicsOnEntropyFailure(t *testing.T) {
	g, err := newGenerator(MinTokenBytes, failingReader{})
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrEntropyFailure) {
			t.Fatalf("expected ErrEntropyFailure, got %v", r)
		}
	}()
	g.Token()
}

func TestGeneratorTokensDistinct(t *testing.T) {
	g, err := NewGenerator(MinTokenBytes)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok := g.Token()
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok] = struct{}{}
	}
}
