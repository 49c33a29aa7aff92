package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAttemptLockerExcludesSecondHolder(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewAttemptLocker(newClient(mr), time.Minute)
	unlock, err := locker.Lock(context.Background(), "u1", "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("quiz:lock:6:quiz-1:u1") {
		t.Fatalf("expected lock key")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "u1", "quiz-1"); !errors.Is(err, domain.ErrLockUnavailable) {
		t.Fatalf("expected ErrLockUnavailable while held, got %v", err)
	}

	unlock()
	if mr.Exists("quiz:lock:6:quiz-1:u1") {
		t.Fatalf("expected lock key removed on unlock")
	}

	again, err := locker.Lock(context.Background(), "u1", "quiz-1")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestAttemptLockerReleaseKeepsForeignLock(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewAttemptLocker(newClient(mr), time.Second)
	unlock, err := locker.Lock(context.Background(), "u1", "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// Our lease expires and another instance takes over.
	mr.FastForward(2 * time.Second)
	if err := mr.Set("quiz:lock:6:quiz-1:u1", "someone-else"); err != nil {
		t.Fatalf("seed foreign lock: %v", err)
	}

	unlock()
	if got, _ := mr.Get("quiz:lock:6:quiz-1:u1"); got != "someone-else" {
		t.Fatalf("stale unlock removed a foreign lock, key now %q", got)
	}
}

func TestAttemptLockerUnlockIsIdempotent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewAttemptLocker(newClient(mr), time.Minute)
	unlock, err := locker.Lock(context.Background(), "u1", "quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	unlock()

	next, err := locker.Lock(context.Background(), "u1", "quiz-1")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	defer next()

	// A repeated release of the first lease must leave the new holder alone.
	unlock()
	if !mr.Exists("quiz:lock:6:quiz-1:u1") {
		t.Fatalf("second unlock released the new holder's lock")
	}
}
