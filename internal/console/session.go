package console

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry maps session IDs to controllers and forgets sessions idle longer than ttl.
type Registry struct {
	api API
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewRegistry(api API, ttl time.Duration) *Registry {
	return &Registry{
		api:      api,
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// Get returns the controller for id and marks the session as used.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	s.lastSeen = r.now()
	r.mu.Unlock()
	return s.ctrl, true
}

// Create starts a new session with a fresh controller.
func (r *Registry) Create() (string, *Controller) {
	id := uuid.NewString()
	ctrl := NewController(r.api)
	r.mu.Lock()
	r.sessions[id] = &session{ctrl: ctrl, lastSeen: r.now()}
	r.mu.Unlock()
	return id, ctrl
}

func (r *Registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire drops sessions idle for longer than the ttl and returns how many were dropped.
func (r *Registry) Expire() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run expires idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Expire(); n > 0 {
				log.Printf("Expired %d idle console sessions, %d active", n, r.size())
			}
		}
	}
}
