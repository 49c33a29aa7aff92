package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestAttemptLedgerLatestAndList(t *testing.T) {
	ctx := context.Background()
	ledger := NewAttemptLedger()

	latest, err := ledger.LatestAttempt(ctx, "u1", "quiz-1")
	if err != nil || latest != nil {
		t.Fatalf("expected no attempt, got %+v (%v)", latest, err)
	}

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var prev *domain.AttemptRecord
	for i, score := range []int{1, 3} {
		rec := domain.AttemptRecord{
			ID:          []string{"a1", "a2"}[i],
			QuizID:      "quiz-1",
			UserID:      "u1",
			Score:       score,
			TotalScore:  4,
			CompletedAt: t0.Add(time.Duration(i) * 10 * time.Minute),
		}
		stored, err := ledger.AppendAttempt(ctx, rec, prev)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		prev = &stored
	}

	latest, err = ledger.LatestAttempt(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "a2" || latest.Score != 3 {
		t.Fatalf("expected a2 as latest, got %+v", latest)
	}

	records, _ := ledger.ListAttempts(ctx, "u1", "quiz-1")
	if len(records) != 2 || records[0].ID != "a1" {
		t.Fatalf("expected two records oldest first, got %+v", records)
	}

	other, _ := ledger.LatestAttempt(ctx, "u1", "quiz-2")
	if other != nil {
		t.Fatalf("attempts must be scoped per quiz, got %+v", other)
	}
}

func TestAttemptLedgerRejectsDuplicateCompletion(t *testing.T) {
	ctx := context.Background()
	ledger := NewAttemptLedger()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := ledger.AppendAttempt(ctx, domain.AttemptRecord{ID: "a1", QuizID: "quiz-1", UserID: "u1", CompletedAt: at}, nil)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	_, err = ledger.AppendAttempt(ctx, domain.AttemptRecord{ID: "a2", QuizID: "quiz-1", UserID: "u1", CompletedAt: at}, &first)
	if !errors.Is(err, domain.ErrAttemptConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if ledger.Count("u1", "quiz-1") != 1 {
		t.Fatalf("expected a single record, got %d", ledger.Count("u1", "quiz-1"))
	}
}

func TestAttemptLedgerRejectsStaleLatest(t *testing.T) {
	ctx := context.Background()
	ledger := NewAttemptLedger()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	// Two writers both observed an empty history; only the first may append.
	if _, err := ledger.AppendAttempt(ctx, domain.AttemptRecord{ID: "a1", QuizID: "quiz-1", UserID: "u1", CompletedAt: at}, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	_, err := ledger.AppendAttempt(ctx, domain.AttemptRecord{ID: "a2", QuizID: "quiz-1", UserID: "u1", CompletedAt: at.Add(time.Second)}, nil)
	if !errors.Is(err, domain.ErrAttemptConflict) {
		t.Fatalf("expected conflict for a stale latest record, got %v", err)
	}

	stale := domain.AttemptRecord{ID: "gone", QuizID: "quiz-1", UserID: "u1", CompletedAt: at.Add(-time.Hour)}
	_, err = ledger.AppendAttempt(ctx, domain.AttemptRecord{ID: "a3", QuizID: "quiz-1", UserID: "u1", CompletedAt: at.Add(time.Minute)}, &stale)
	if !errors.Is(err, domain.ErrAttemptConflict) {
		t.Fatalf("expected conflict for an unknown latest record, got %v", err)
	}
	if ledger.Count("u1", "quiz-1") != 1 {
		t.Fatalf("expected a single record, got %d", ledger.Count("u1", "quiz-1"))
	}
}
