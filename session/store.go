package session

import (
	"errors"
	"sync"
	"time"
)

// DefaultTTL is the session lifetime used when Options.TTL is zero.
const DefaultTTL = time.Hour

// Options configures a Store. TTL is fixed for the lifetime of the store.
type Options struct {
	TTL        time.Duration
	TokenBytes int
	Sweep      SweepStrategy
	Clock      Clock
}

// Store is the exclusively-owned token → session map.
type Store struct {
	ttl   time.Duration
	gen   *Generator
	clock Clock

	mu       sync.Mutex
	sessions map[string]Session
	sweeper  sweeper

	created uint64
	revoked uint64
	expired uint64
}

// NewStore validates opts and returns an empty store.
func NewStore(opts Options) (*Store, error) {
	if opts.TokenBytes == 0 {
		opts.TokenBytes = DefaultTokenBytes
	}
	gen, err := NewGenerator(opts.TokenBytes)
	if err != nil {
		return nil, err
	}
	return newStore(opts, gen)
}

func newStore(opts Options, gen *Generator) (*Store, error) {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TTL < 0 {
		return nil, errors.New("session: TTL must be > 0")
	}
	strategy, err := ParseSweepStrategy(string(opts.Sweep))
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}

	return &Store{
		ttl:      opts.TTL,
		gen:      gen,
		clock:    opts.Clock,
		sessions: make(map[string]Session),
		sweeper:  newSweeper(strategy),
	}, nil
}

// TTL returns the fixed session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create issues a new session bound to ip and mac (either may be empty) and
// returns a copy of what was stored. A generated token that collides with an
// existing entry is discarded and regenerated; nothing is ever overwritten.
func (s *Store) Create(ip, mac, username string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.sweepLocked(now)

	token := s.gen.Token()
	for {
		if _, exists := s.sessions[token]; !exists {
			break
		}
		token = s.gen.Token()
	}

	sess := Session{
		Token:    token,
		IP:       ip,
		MAC:      mac,
		Username: username,
		ExpireAt: now.Add(s.ttl),
	}
	s.sessions[token] = sess
	s.sweeper.track(token, sess.ExpireAt)
	s.created++

	return sess
}

// Validate reports whether token names a live session whose bindings match.
// An empty ip or mac skips that binding check.
func (s *Store) Validate(token, ip, mac string) bool {
	_, ok := s.Lookup(token, ip, mac)
	return ok
}

// Lookup makes the same decision as Validate and, on success, also returns a
// copy of the session.
func (s *Store) Lookup(token, ip, mac string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.sweepLocked(now)

	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if sess.Expired(now) {
		return Session{}, false
	}
	if !sess.matches(ip, mac) {
		return Session{}, false
	}
	return sess, true
}

// Revoke removes token and reports whether an entry was removed. Unknown or
// already-swept tokens are a no-op.
func (s *Store) Revoke(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return false
	}
	delete(s.sessions, token)
	s.revoked++
	return true
}

// Len is the number of stored entries, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Stats returns lifetime counters and the current entry count.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Live:    len(s.sessions),
		Created: s.created,
		Revoked: s.revoked,
		Expired: s.expired,
	}
}

func (s *Store) sweepLocked(now time.Time) {
	s.expired += uint64(s.sweeper.sweep(now, s.sessions))
}
