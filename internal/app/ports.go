package app

import (
	"context"

	"quiz-attempt-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptLedger is the append-only store of completed attempts keyed by (user, quiz).
type AttemptLedger interface {
	// LatestAttempt returns nil when the user never attempted the quiz.
	LatestAttempt(ctx context.Context, userID, quizID string) (*domain.AttemptRecord, error)
	// AppendAttempt stores record only while prev (nil for none) is still the latest
	// record of the pair; otherwise it fails with domain.ErrAttemptConflict.
	AppendAttempt(ctx context.Context, record domain.AttemptRecord, prev *domain.AttemptRecord) (domain.AttemptRecord, error)
	// ListAttempts returns records ordered by completion time, oldest first.
	ListAttempts(ctx context.Context, userID, quizID string) ([]domain.AttemptRecord, error)
}

// AttemptLocker serializes the check-then-append sequence for one (user, quiz) pair.
// The returned func releases the lock and is safe to call once.
type AttemptLocker interface {
	Lock(ctx context.Context, userID, quizID string) (func(), error)
}

// EventPublisher announces recorded attempts to downstream consumers.
type EventPublisher interface {
	PublishAttemptCompleted(ctx context.Context, event domain.AttemptCompleted) error
}
