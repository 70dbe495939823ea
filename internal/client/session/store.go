// Package session holds the in-memory session state of the client and the
// bootstrapper that populates it once per process start.
package session

import (
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
)

type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusChecking        Status = "checking"
	StatusAuthenticated   Status = "authenticated"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	User          *models.User
	Status        Status
	FailureReason string
}

// Authenticated reports whether the snapshot carries a signed-in user.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User.Valid()
}

// Store is the only process-wide mutable resource. It is written by the
// bootstrapper and by explicit sign-in/sign-out flows; everyone else reads
// snapshots.
type Store struct {
	mu          sync.RWMutex
	user        *models.User
	status      Status
	reason      string
	subscribers []func(Snapshot)
}

func NewStore() *Store {
	return &Store{status: StatusUnauthenticated}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{User: s.user.Clone(), Status: s.status, FailureReason: s.reason}
}

// Subscribe registers fn to be called after every state change. Callbacks run
// synchronously on the goroutine that made the change, outside the lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// SignedIn records a successful sign-in. An invalid user is ignored.
func (s *Store) SignedIn(u *models.User) {
	if !u.Valid() {
		return
	}
	s.update(func() {
		s.user = u.Clone()
		s.status = StatusAuthenticated
		s.reason = ""
	})
}

// Reset drops all session-derived state and records why.
func (s *Store) Reset(reason string) {
	s.update(func() {
		s.user = nil
		s.status = StatusUnauthenticated
		s.reason = reason
	})
}

// beginCheck moves the store into the checking state unless a user is
// already present. It reports whether the caller should run the check.
func (s *Store) beginCheck() bool {
	started := false
	s.update(func() {
		if s.user != nil || s.status == StatusChecking {
			return
		}
		s.status = StatusChecking
		s.reason = ""
		started = true
	})
	return started
}

// finishCheck applies the outcome of an identity check. It is discarded when
// the state has moved on while the check was in flight, e.g. after a sign-in.
func (s *Store) finishCheck(u *models.User, reason string) bool {
	applied := false
	s.update(func() {
		if s.status != StatusChecking {
			return
		}
		applied = true
		if u.Valid() {
			s.user = u.Clone()
			s.status = StatusAuthenticated
			s.reason = ""
			return
		}
		s.user = nil
		s.status = StatusUnauthenticated
		s.reason = reason
	})
	return applied
}

func (s *Store) update(fn func()) {
	s.mu.Lock()
	before := s.snapshotLocked()
	fn()
	after := s.snapshotLocked()
	subs := append([]func(Snapshot){}, s.subscribers...)
	s.mu.Unlock()

	if before.Status == after.Status && before.FailureReason == after.FailureReason && sameUser(before.User, after.User) {
		return
	}
	for _, fn := range subs {
		fn(after)
	}
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
