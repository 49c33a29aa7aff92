package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizNotAttemptable is returned for quizzes whose definition cannot be scored.
	ErrQuizNotAttemptable = errors.New("quiz is not attemptable")
	// ErrMalformedSubmission is returned for structurally invalid requests.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrPersistence indicates the attempt ledger failed to record a scored attempt.
	ErrPersistence = errors.New("attempt could not be persisted")
	// ErrAttemptConflict is returned by ledgers when a concurrent attempt was already recorded.
	ErrAttemptConflict = errors.New("attempt already recorded")
	// ErrLockUnavailable means the per-attempt lock could not be acquired in time.
	ErrLockUnavailable = errors.New("attempt lock unavailable")
)
