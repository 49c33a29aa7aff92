package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestAttemptLockerSerializesSameKey(t *testing.T) {
	locker := NewAttemptLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "u1", "quiz-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxSeen)
	}
	if locker.Len() != 0 {
		t.Fatalf("expected lock entries to be released, got %d", locker.Len())
	}
}

func TestAttemptLockerHonorsContext(t *testing.T) {
	locker := NewAttemptLocker()
	unlock, err := locker.Lock(context.Background(), "u1", "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	// A different quiz is independent.
	other, err := locker.Lock(context.Background(), "u1", "quiz-2")
	if err != nil {
		t.Fatalf("lock other quiz: %v", err)
	}
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "u1", "quiz-1"); !errors.Is(err, domain.ErrLockUnavailable) {
		t.Fatalf("expected ErrLockUnavailable, got %v", err)
	}
}
