package session

import (
	"sync"
	"time"
)

// DefaultIdle is how long an unused session is kept.
const DefaultIdle = 30 * time.Minute

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Registry keeps one Session per user identity. Sessions not touched for the
// idle period are dropped on the next Get.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	idle     time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry that evicts after DefaultIdle
func NewRegistry() *Registry {
	return NewRegistryWithIdle(DefaultIdle)
}

// NewRegistryWithIdle creates an empty registry. idle <= 0 disables eviction.
func NewRegistryWithIdle(idle time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		idle:     idle,
		now:      time.Now,
	}
}

// Get returns the session for user, creating it on first use.
func (r *Registry) Get(user string) *Session {
	if user == "" {
		user = AnonymousUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.idle > 0 {
		for k, e := range r.sessions {
			if now.Sub(e.lastSeen) > r.idle {
				delete(r.sessions, k)
			}
		}
	}

	e, ok := r.sessions[user]
	if !ok {
		e = &entry{session: New(user)}
		r.sessions[user] = e
	}
	e.lastSeen = now
	return e.session
}

// Delete forgets the session for user.
func (r *Registry) Delete(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, user)
}

// Len reports how many sessions are held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
