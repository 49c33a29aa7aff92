package postgres

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

const lockPollInterval = 25 * time.Millisecond

// AttemptLocker takes a session-level advisory lock per (user, quiz) on a pinned
// pool connection. The lock dies with the connection if the holder crashes.
// Waiters poll with pg_try_advisory_lock and do not keep a connection while waiting.
type AttemptLocker struct {
	pool *pgxpool.Pool
}

func NewAttemptLocker(pool *pgxpool.Pool) *AttemptLocker {
	return &AttemptLocker{pool: pool}
}

func (l *AttemptLocker) Lock(ctx context.Context, userID, quizID string) (func(), error) {
	key := advisoryKey(userID, quizID)

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		conn, err := l.pool.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLockUnavailable, err)
		}
		var acquired bool
		if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&acquired); err != nil {
			conn.Release()
			return nil, fmt.Errorf("%w: %w", domain.ErrLockUnavailable, err)
		}
		if acquired {
			return unlocker(conn, key), nil
		}
		conn.Release()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrLockUnavailable, ctx.Err())
		}
	}
}

func unlocker(conn *pgxpool.Conn, key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
				// Never hand a connection that may still hold the lock back to the pool.
				_ = conn.Conn().Close(unlockCtx)
			}
			conn.Release()
		})
	}
}

func advisoryKey(userID, quizID string) string {
	return "quiz-attempt:" + strconv.Itoa(len(quizID)) + ":" + quizID + ":" + userID
}
