package workflow

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks hands out one mutex per session. Entries are dropped when unused.
type sessionLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{m: map[uuid.UUID]*lockEntry{}}
}

// Lock blocks until the session is free and returns its unlock function.
func (l *sessionLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &lockEntry{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
