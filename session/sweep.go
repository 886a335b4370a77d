package session

import (
	"container/heap"
	"fmt"
	"time"
)

// SweepStrategy selects how expired sessions are found.
type SweepStrategy string

const (
	// SweepScan walks every entry on each sweep.
	SweepScan SweepStrategy = "scan"
	// SweepHeap pops expired entries off a min-heap keyed by ExpireAt.
	SweepHeap SweepStrategy = "heap"
)

// ParseSweepStrategy maps a config value to a strategy. Empty means SweepScan.
func ParseSweepStrategy(v string) (SweepStrategy, error) {
	switch SweepStrategy(v) {
	case "", SweepScan:
		return SweepScan, nil
	case SweepHeap:
		return SweepHeap, nil
	default:
		return "", fmt.Errorf("session: unknown sweep strategy %q", v)
	}
}

// sweeper removes expired entries from sessions and reports how many it
// removed. Callers hold the store lock.
type sweeper interface {
	track(token string, expireAt time.Time)
	sweep(now time.Time, sessions map[string]Session) int
}

func newSweeper(s SweepStrategy) sweeper {
	if s == SweepHeap {
		return &heapSweeper{}
	}
	return scanSweeper{}
}

type scanSweeper struct{}

func (scanSweeper) track(string, time.Time) {}

func (scanSweeper) sweep(now time.Time, sessions map[string]Session) int {
	removed := 0
	for token, s := range sessions {
		if s.Expired(now) {
			delete(sessions, token)
			removed++
		}
	}
	return removed
}

type expiryEntry struct {
	token    string
	expireAt time.Time
}

type expiryHeap []expiryEntry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expireAt.Before(h[j].expireAt) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expiryHeap) Push(x any) { *h = append(*h, x.(expiryEntry)) }

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = expiryEntry{}
	*h = old[:n-1]
	return e
}

// heapSweeper keeps one entry per issued session. Revoked sessions leave a
// stale entry behind until their expiry time surfaces it.
type heapSweeper struct {
	h expiryHeap
}

func (s *heapSweeper) track(token string, expireAt time.Time) {
	heap.Push(&s.h, expiryEntry{token: token, expireAt: expireAt})
}

func (s *heapSweeper) sweep(now time.Time, sessions map[string]Session) int {
	removed := 0
	for s.h.Len() > 0 && now.After(s.h[0].expireAt) {
		e := heap.Pop(&s.h).(expiryEntry)
		cur, ok := sessions[e.token]
		if !ok || !cur.ExpireAt.Equal(e.expireAt) {
			continue
		}
		delete(sessions, e.token)
		removed++
	}
	return removed
}

// pending is the number of index entries, stale ones included.
func (s *heapSweeper) pending() int {
	return s.h.Len()
}
