package memory

import (
	"context"
	"fmt"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// AttemptLocker hands out one in-process lock per (user, quiz). Entries are
// reference counted and dropped once nobody holds or waits for them.
type AttemptLocker struct {
	mu    sync.Mutex
	locks map[attemptKey]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func NewAttemptLocker() *AttemptLocker {
	return &AttemptLocker{locks: make(map[attemptKey]*lockEntry)}
}

func (l *AttemptLocker) Lock(ctx context.Context, userID, quizID string) (func(), error) {
	key := attemptKey{userID: userID, quizID: quizID}

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, fmt.Errorf("%w: %w", domain.ErrLockUnavailable, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.release(key, entry)
		})
	}, nil
}

func (l *AttemptLocker) release(key attemptKey, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// Len reports how many keys currently have holders or waiters.
func (l *AttemptLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
