package services

import (
	"sync"

	"github.com/google/uuid"
)

// LearnerLocks serializes read-then-append sequences per learner. Two
// concurrent pipeline runs for the same learner would otherwise race on
// delta application and lose updates; runs for different learners stay
// fully concurrent.
type LearnerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLearnerLocks() *LearnerLocks {
	return &LearnerLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the learner's mutex and returns the unlock func.
func (l *LearnerLocks) Lock(learnerID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[learnerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[learnerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
