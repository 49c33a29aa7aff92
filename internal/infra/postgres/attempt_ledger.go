package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-attempt-service/internal/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// AttemptLedger is the quiz_attempts table. Rows are inserted, never updated.
// The conditional insert and UNIQUE (user_id, quiz_id, completed_at) back up the attempt lock.
type AttemptLedger struct {
	pool *pgxpool.Pool
}

func NewAttemptLedger(pool *pgxpool.Pool) *AttemptLedger {
	return &AttemptLedger{pool: pool}
}

func (l *AttemptLedger) LatestAttempt(ctx context.Context, userID, quizID string) (*domain.AttemptRecord, error) {
	row := l.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_id, score, total_score, completed_at
		 FROM quiz_attempts
		 WHERE user_id = $1 AND quiz_id = $2
		 ORDER BY completed_at DESC
		 LIMIT 1`,
		userID, quizID)

	record, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest attempt: %w", err)
	}
	return &record, nil
}

// AppendAttempt inserts only while prev is still the newest row of the pair.
func (l *AttemptLedger) AppendAttempt(ctx context.Context, record domain.AttemptRecord, prev *domain.AttemptRecord) (domain.AttemptRecord, error) {
	expectedLatest := ""
	if prev != nil {
		expectedLatest = prev.ID
	}
	tag, err := l.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (id, quiz_id, user_id, score, total_score, completed_at)
		 SELECT $1::text, $2::text, $3::text, $4::integer, $5::integer, $6::timestamptz
		 WHERE COALESCE((
		     SELECT id FROM quiz_attempts
		     WHERE user_id = $3::text AND quiz_id = $2::text
		     ORDER BY completed_at DESC
		     LIMIT 1
		 ), '') = $7::text`,
		record.ID, record.QuizID, record.UserID, record.Score, record.TotalScore, record.CompletedAt.UTC(), expectedLatest)
	if isUniqueViolation(err) {
		return domain.AttemptRecord{}, domain.ErrAttemptConflict
	}
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("insert attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.AttemptRecord{}, domain.ErrAttemptConflict
	}
	return record, nil
}

func (l *AttemptLedger) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.AttemptRecord, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, quiz_id, user_id, score, total_score, completed_at
		 FROM quiz_attempts
		 WHERE user_id = $1 AND quiz_id = $2
		 ORDER BY completed_at ASC`,
		userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AttemptRecord, 0)
	for rows.Next() {
		record, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanAttempt(row pgx.Row) (domain.AttemptRecord, error) {
	var record domain.AttemptRecord
	err := row.Scan(&record.ID, &record.QuizID, &record.UserID, &record.Score, &record.TotalScore, &record.CompletedAt)
	record.CompletedAt = record.CompletedAt.UTC()
	return record, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
