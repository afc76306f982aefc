package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/lmsquiz/internal/lms"
)

type sessionEntry struct {
	session *lms.Session
	expires time.Time
}

// sessionStore keeps logged-in LMS sessions in memory.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: map[string]sessionEntry{}, now: time.Now}
}

func (s *sessionStore) put(sess *lms.Session, expires time.Time) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[id] = sessionEntry{session: sess, expires: expires}
	return id
}

func (s *sessionStore) get(id string) (*lms.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expires) {
		delete(s.sessions, id)
		return nil, false
	}
	return e.session, true
}

func (s *sessionStore) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionStore) sweepLocked() {
	now := s.now()
	for id, e := range s.sessions {
		if !now.Before(e.expires) {
			delete(s.sessions, id)
		}
	}
}
