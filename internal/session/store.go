package session

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suryamshetty/marine-draw/internal/config"
	"github.com/suryamshetty/marine-draw/internal/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Store keeps sessions in memory and expires them after an idle timeout
type Store struct {
	entries     map[string]*storeEntry
	mutex       sync.RWMutex
	idleTimeout time.Duration
	maxSessions int
	logger      *zap.SugaredLogger
	now         func() time.Time
}

type storeEntry struct {
	session    *Session
	lastAccess time.Time
}

// NewStore creates an empty session store
func NewStore(cfg config.SessionsConfig, logger *zap.SugaredLogger) *Store {
	return &Store{
		entries:     make(map[string]*storeEntry),
		idleTimeout: cfg.IdleTimeout,
		maxSessions: cfg.MaxSessions,
		logger:      logger,
		now:         time.Now,
	}
}

// Create starts a new session with a random id. setup, when non-nil, runs before the
// session becomes visible to Get, Delete or cleanup, so hooks it registers always fire.
func (s *Store) Create(setup func(*Session)) (*Session, error) {
	sess := New(uuid.NewString(), s.logger)
	if setup != nil {
		setup(sess)
	}

	s.mutex.Lock()
	var expired []*Session
	if len(s.entries) >= s.maxSessions {
		// Idle sessions the cleanup ticker has not reached yet do not count against the cap
		expired = s.removeExpiredLocked(s.now())
	}
	if len(s.entries) >= s.maxSessions {
		s.mutex.Unlock()
		s.closeExpired(expired)
		sess.close()
		return nil, ErrTooManySessions
	}
	s.entries[sess.ID] = &storeEntry{session: sess, lastAccess: s.now()}
	active := len(s.entries)
	metrics.SessionsActive.Set(float64(active))
	s.mutex.Unlock()

	s.closeExpired(expired)
	s.logger.Infow("Session created", "session", sess.ID, "active", active)
	return sess, nil
}

// Get returns a live session and refreshes its idle timer
func (s *Store) Get(id string) (*Session, error) {
	s.mutex.Lock()
	entry, exists := s.entries[id]
	if !exists {
		s.mutex.Unlock()
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if now.Sub(entry.lastAccess) > s.idleTimeout {
		delete(s.entries, id)
		metrics.SessionsActive.Set(float64(len(s.entries)))
		metrics.SessionsExpiredTotal.Inc()
		s.mutex.Unlock()

		entry.session.close()
		return nil, ErrSessionNotFound
	}

	entry.lastAccess = now
	s.mutex.Unlock()
	return entry.session, nil
}

// Delete removes a session, reporting whether it existed
func (s *Store) Delete(id string) bool {
	s.mutex.Lock()
	entry, exists := s.entries[id]
	if exists {
		delete(s.entries, id)
		metrics.SessionsActive.Set(float64(len(s.entries)))
	}
	s.mutex.Unlock()

	if exists {
		entry.session.close()
		s.logger.Infow("Session deleted", "session", id)
	}
	return exists
}

// Len returns the number of sessions held, expired or not
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// CleanupExpired removes all sessions idle for longer than the timeout
func (s *Store) CleanupExpired() int {
	s.mutex.Lock()
	expired := s.removeExpiredLocked(s.now())
	s.mutex.Unlock()

	s.closeExpired(expired)
	return len(expired)
}

// removeExpiredLocked drops idle entries; the caller holds the write lock
func (s *Store) removeExpiredLocked(now time.Time) []*Session {
	var expired []*Session
	for id, entry := range s.entries {
		if now.Sub(entry.lastAccess) > s.idleTimeout {
			delete(s.entries, id)
			expired = append(expired, entry.session)
		}
	}
	metrics.SessionsActive.Set(float64(len(s.entries)))
	return expired
}

func (s *Store) closeExpired(expired []*Session) {
	for _, sess := range expired {
		sess.close()
	}
	metrics.SessionsExpiredTotal.Add(float64(len(expired)))
}

// StartPeriodicCleanup starts a goroutine that expires idle sessions until ctx is done
func (s *Store) StartPeriodicCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorw("Session cleanup: recovered from panic",
					"error", r, "stack", string(debug.Stack()))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.CleanupExpired(); removed > 0 {
					s.logger.Infow("Expired idle sessions", "removed", removed, "active", s.Len())
				}
			}
		}
	}()
}
