package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestLearnerLocks_SerializesPerLearner(t *testing.T) {
	locks := NewLearnerLocks()
	learnerID := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(learnerID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50 (lost updates)", counter)
	}
}

func TestLearnerLocks_IndependentLearners(t *testing.T) {
	locks := NewLearnerLocks()
	a, b := uuid.New(), uuid.New()

	unlockA := locks.Lock(a)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(b)
		unlockB()
		close(done)
	}()
	<-done
}

func TestLearnerLocks_RelockAfterUnlock(t *testing.T) {
	locks := NewLearnerLocks()
	learnerID := uuid.New()

	unlock := locks.Lock(learnerID)
	unlock()
	unlock = locks.Lock(learnerID)
	unlock()
}
