package monitor

import (
	"sync"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/status"
)

// Store holds the latest status of every monitored service, in
// configuration order.
type Store struct {
	mu      sync.RWMutex
	entries status.Response
	index   map[string]int
}

// NewStore creates a store with every service marked as not polled yet.
func NewStore(names []string) *Store {
	s := &Store{}
	s.Reset(names)
	return s
}

// Reset replaces the set of services. Services that survive keep their
// last status; new ones start as not polled yet.
func (s *Store) Reset(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entries := make(status.Response, 0, len(names))
	index := make(map[string]int, len(names))
	for _, name := range names {
		if _, dup := index[name]; dup {
			continue
		}
		st := status.ServiceStatus{Up: false, Last: now, FailureReason: constants.NotPolledYet}
		if i, ok := s.index[name]; ok {
			st = s.entries[i].Status
		}
		index[name] = len(entries)
		entries = append(entries, status.Entry{Name: name, Status: st})
	}

	s.entries = entries
	s.index = index
}

// Set records the status of a service. Unknown services are ignored.
func (s *Store) Set(name string, st status.ServiceStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[name]
	if !ok {
		return false
	}
	s.entries[i].Status = st
	return true
}

// Snapshot returns a copy of the current statuses.
func (s *Store) Snapshot() status.Response {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(status.Response, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of services.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Polled reports whether every service has been probed at least once.
func (s *Store) Polled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if !e.Status.Up && e.Status.FailureReason == constants.NotPolledYet {
			return false
		}
	}
	return true
}
