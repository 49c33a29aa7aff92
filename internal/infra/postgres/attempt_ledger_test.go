package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "quiz_attempts_user_quiz_completed_key"}
	if !isUniqueViolation(fmt.Errorf("insert attempt: %w", dup)) {
		t.Fatalf("expected wrapped unique violation to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("connection reset")) || isUniqueViolation(nil) {
		t.Fatalf("plain errors are not unique violations")
	}
}

func TestAdvisoryKeyIsScopedPerPair(t *testing.T) {
	if advisoryKey("u1", "quiz-1") == advisoryKey("u1", "quiz-2") {
		t.Fatalf("different quizzes must not share a lock")
	}
	if advisoryKey("u1", "quiz-1") == advisoryKey("u2", "quiz-1") {
		t.Fatalf("different users must not share a lock")
	}
	if advisoryKey("b:c", "a") == advisoryKey("c", "a:b") {
		t.Fatalf("ids containing ':' must not share a lock")
	}
}
