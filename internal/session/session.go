// Package session holds per-user interaction state: the current user, the
// last image sent for recognition and the last resolved record. Observers
// subscribe explicitly and are notified synchronously after every change.
package session

import (
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/booklens/internal/models"
)

// AnonymousUser is the identity used when nobody is logged in.
const AnonymousUser = "anon"

// Snapshot is an immutable view of a session.
type Snapshot struct {
	User       string             `json:"user"`
	LastImage  string             `json:"lastImage,omitempty"`
	LastResult *models.BookRecord `json:"lastResult,omitempty"`
}

// Observer is called with the new state after each mutation.
type Observer func(Snapshot)

// Session is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	user       string
	lastImage  string
	lastResult *models.BookRecord
	observers  map[int]Observer
	nextID     int
}

// New returns a session for user; an empty user means AnonymousUser.
func New(user string) *Session {
	if user == "" {
		user = AnonymousUser
	}
	return &Session{user: user, observers: make(map[int]Observer)}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// SetUser switches the identity. Image and result are kept.
func (s *Session) SetUser(user string) {
	if user == "" {
		user = AnonymousUser
	}
	s.update(func() { s.user = user })
}

// Clear resets the session to an anonymous, empty state.
func (s *Session) Clear() {
	s.update(func() {
		s.user = AnonymousUser
		s.lastImage = ""
		s.lastResult = nil
	})
}

// SetImage records the image data URL of the current lookup.
func (s *Session) SetImage(dataURL string) {
	s.update(func() { s.lastImage = dataURL })
}

// SetResult records the last resolved record.
func (s *Session) SetResult(r models.BookRecord) {
	c := r.Clone()
	s.update(func() { s.lastResult = &c })
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// User returns the current identity.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{User: s.user, LastImage: s.lastImage}
	if s.lastResult != nil {
		c := s.lastResult.Clone()
		snap.LastResult = &c
	}
	return snap
}

func (s *Session) update(mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	observers := make([]Observer, 0, len(s.observers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range observers {
		notify(fn, snap)
	}
}

func notify(fn Observer, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Session observer panicked", "panic", r)
		}
	}()
	fn(snap)
}
