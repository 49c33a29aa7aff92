package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

type attemptKey struct {
	userID string
	quizID string
}

// AttemptLedger is an in-memory, append-only attempt store.
// Like the Postgres table, it refuses two records with the same completion time per (user, quiz),
// and it refuses an append whose observed latest record is stale.
type AttemptLedger struct {
	mu      sync.RWMutex
	records map[attemptKey][]domain.AttemptRecord
}

func NewAttemptLedger() *AttemptLedger {
	return &AttemptLedger{records: make(map[attemptKey][]domain.AttemptRecord)}
}

func (l *AttemptLedger) LatestAttempt(_ context.Context, userID, quizID string) (*domain.AttemptRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return latestOf(l.records[attemptKey{userID: userID, quizID: quizID}]), nil
}

func latestOf(records []domain.AttemptRecord) *domain.AttemptRecord {
	if len(records) == 0 {
		return nil
	}
	latest := records[0]
	for _, rec := range records[1:] {
		if !rec.CompletedAt.Before(latest.CompletedAt) {
			latest = rec
		}
	}
	return &latest
}

func (l *AttemptLedger) AppendAttempt(_ context.Context, record domain.AttemptRecord, prev *domain.AttemptRecord) (domain.AttemptRecord, error) {
	key := attemptKey{userID: record.UserID, quizID: record.QuizID}

	l.mu.Lock()
	defer l.mu.Unlock()
	if latestID(latestOf(l.records[key])) != latestID(prev) {
		return domain.AttemptRecord{}, domain.ErrAttemptConflict
	}
	for _, existing := range l.records[key] {
		if existing.ID == record.ID || existing.CompletedAt.Equal(record.CompletedAt) {
			return domain.AttemptRecord{}, domain.ErrAttemptConflict
		}
	}
	l.records[key] = append(l.records[key], record)
	return record, nil
}

func (l *AttemptLedger) ListAttempts(_ context.Context, userID, quizID string) ([]domain.AttemptRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := l.records[attemptKey{userID: userID, quizID: quizID}]
	out := make([]domain.AttemptRecord, len(records))
	copy(out, records)
	return out, nil
}

func latestID(record *domain.AttemptRecord) string {
	if record == nil {
		return ""
	}
	return record.ID
}

// Count returns the number of records for a (user, quiz) pair.
func (l *AttemptLedger) Count(userID, quizID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records[attemptKey{userID: userID, quizID: quizID}])
}
