package service

import (
	"sync"

	"github.com/google/uuid"
)

// tournamentLocks serializes bracket writes per tournament. uuid.Nil guards
// tournament creation, where no id exists yet.
type tournamentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newTournamentLocks() *tournamentLocks {
	return &tournamentLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock blocks until the tournament is free and returns the matching unlock.
func (l *tournamentLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
