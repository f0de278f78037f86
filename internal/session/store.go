package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

const defaultTTL = 30 * time.Minute

type entry struct {
	turns    []string
	lastSeen time.Time
}

// Store keeps the recent turns of every active session in memory. Session
// keys are client-supplied and opaque; entries idle longer than the TTL are
// removed by the janitor, so a key is effectively scoped to a rolling
// activity window.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
}

// NewStore creates an empty store. A non-positive ttl falls back to 30m.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
	}
}

// Append records one turn for the session and returns all retained turns
// joined with the policy separator. The joined text is exactly what gets
// handed to the classifier.
func (s *Store) Append(key, text string, p Policy) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		e = &entry{turns: make([]string, 0, p.Window+1)}
		s.sessions[key] = e
	}

	if p.Dedupe && len(e.turns) > 0 {
		last := e.turns[len(e.turns)-1]
		if strings.Contains(strings.ToLower(text), strings.ToLower(last)) {
			e.turns = e.turns[:len(e.turns)-1]
		}
	}

	e.turns = append(e.turns, text)
	if p.Window > 0 && len(e.turns) > p.Window {
		// One turn in, at most one turn out.
		e.turns = e.turns[1:]
	}
	e.lastSeen = time.Now()

	return strings.Join(e.turns, p.Separator)
}

// Len reports how many turns a session currently retains.
func (s *Store) Len(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[key]
	if !ok {
		return 0
	}
	return len(e.turns)
}

// Turns returns a copy of the retained turns for a session.
func (s *Store) Turns(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[key]
	if !ok {
		return nil
	}
	out := make([]string, len(e.turns))
	copy(out, e.turns)
	return out
}

// Evict drops a session immediately.
func (s *Store) Evict(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Sweep removes sessions idle longer than the TTL and returns how many were
// evicted.
func (s *Store) Sweep() int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, key)
			evicted++
		}
	}
	return evicted
}

// StartJanitor sweeps idle sessions until the context is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Printf("[session] evicted %d idle sessions", n)
				}
			}
		}
	}()
}
