package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPollInterval = 25 * time.Millisecond

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// AttemptLocker is a per-(user, quiz) lock shared by every service instance
// talking to the same Redis. The TTL bounds how long a crashed holder can block;
// a holder that outlives it is caught by the ledger's tail check.
type AttemptLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptLocker(client *redis.Client, ttl time.Duration) *AttemptLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &AttemptLocker{client: client, ttl: ttl}
}

func (l *AttemptLocker) Lock(ctx context.Context, userID, quizID string) (func(), error) {
	key := l.key(userID, quizID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLockUnavailable, err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrLockUnavailable, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release with a fresh context: the request context may already be done.
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}, nil
}

func (l *AttemptLocker) key(userID, quizID string) string {
	return "quiz:lock:" + pairKey(quizID, userID)
}
