package store

import "sync"

// facilityLocks serializes slot mutations per facility so two concurrent
// reconciles cannot race a delete+insert pair against each other.
type facilityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newFacilityLocks() *facilityLocks {
	return &facilityLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for facilityID and returns its unlock function.
func (l *facilityLocks) acquire(facilityID string) func() {
	l.mu.Lock()
	m, ok := l.locks[facilityID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[facilityID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
