package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubmissionService contains the quiz attempt use cases.
type SubmissionService struct {
	quizzes   QuizRepository
	ledger    AttemptLedger
	locker    AttemptLocker
	publisher EventPublisher
	guard     CooldownGuard
	validate  *validator.Validate
	log       logrus.FieldLogger
	newID     func() string
}

// Option configures a SubmissionService.
type Option func(*SubmissionService)

// WithCooldown sets the window between attempts of the same quiz.
func WithCooldown(window time.Duration) Option {
	return func(s *SubmissionService) { s.guard = NewCooldownGuard(window) }
}

// WithPublisher announces recorded attempts through p.
func WithPublisher(p EventPublisher) Option {
	return func(s *SubmissionService) { s.publisher = p }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *SubmissionService) { s.log = log }
}

// WithIDGenerator overrides attempt id generation (tests).
func WithIDGenerator(fn func() string) Option {
	return func(s *SubmissionService) { s.newID = fn }
}

func NewSubmissionService(quizzes QuizRepository, ledger AttemptLedger, locker AttemptLocker, opts ...Option) *SubmissionService {
	s := &SubmissionService{
		quizzes:  quizzes,
		ledger:   ledger,
		locker:   locker,
		guard:    NewCooldownGuard(DefaultCooldown),
		validate: validator.New(),
		log:      logrus.StandardLogger(),
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CooldownMinutes reports the configured cooldown window in minutes.
func (s *SubmissionService) CooldownMinutes() int {
	return s.guard.Minutes()
}

// AttemptView returns the quiz without correctness data, for users about to attempt it.
func (s *SubmissionService) AttemptView(ctx context.Context, quizID string) (domain.AttemptQuiz, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptQuiz{}, err
	}
	return quiz.ToAttemptView(), nil
}

// Eligibility evaluates the cooldown for a user without recording anything.
func (s *SubmissionService) Eligibility(ctx context.Context, userID, quizID string, now time.Time) (domain.CooldownDecision, error) {
	if err := s.validateRequest(domain.SubmissionRequest{UserID: userID, QuizID: quizID}); err != nil {
		return domain.CooldownDecision{}, err
	}
	if _, err := s.loadQuiz(ctx, quizID); err != nil {
		return domain.CooldownDecision{}, err
	}
	latest, err := s.ledger.LatestAttempt(ctx, userID, quizID)
	if err != nil {
		return domain.CooldownDecision{}, fmt.Errorf("latest attempt: %w", err)
	}
	return s.guard.Check(latest, normalize(now)), nil
}

// History lists the user's own attempts of a quiz, oldest first.
func (s *SubmissionService) History(ctx context.Context, userID, quizID string) ([]domain.AttemptRecord, error) {
	if err := s.validateRequest(domain.SubmissionRequest{UserID: userID, QuizID: quizID}); err != nil {
		return nil, err
	}
	records, err := s.ledger.ListAttempts(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return records, nil
}

// Submit scores a full answer set and records the attempt, unless the user is
// still inside the cooldown window of their previous attempt. In that case
// nothing is scored or persisted.
func (s *SubmissionService) Submit(ctx context.Context, userID, quizID string, answers map[string]string, now time.Time) (domain.SubmissionResult, error) {
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "quiz_id": quizID})

	req := domain.SubmissionRequest{UserID: userID, QuizID: quizID, Answers: answers}
	if err := s.validateRequest(req); err != nil {
		log.WithError(err).Debug("rejected malformed submission")
		return domain.SubmissionResult{}, err
	}

	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		log.WithError(err).Info("submission for unavailable quiz")
		return domain.SubmissionResult{}, err
	}

	now = normalize(now)
	result, err := s.submitLocked(ctx, quiz, req, now)
	if err != nil {
		log.WithError(err).Error("submission failed")
		return domain.SubmissionResult{}, err
	}

	switch result.Outcome {
	case domain.OutcomeCooldown:
		log.WithField("remaining_seconds", result.Cooldown.RemainingSeconds).Info("submission blocked by cooldown")
	case domain.OutcomeScored:
		scored := result.Scored
		log.WithFields(logrus.Fields{
			"attempt_id": scored.Attempt.ID,
			"score":      scored.Score,
			"total":      scored.TotalScore,
		}).Info("attempt recorded")
		s.publish(ctx, log, scored)
	}
	return result, nil
}

// submitLocked holds the per-(user, quiz) lock from the ledger read until the append.
func (s *SubmissionService) submitLocked(ctx context.Context, quiz domain.Quiz, req domain.SubmissionRequest, now time.Time) (domain.SubmissionResult, error) {
	unlock, err := s.locker.Lock(ctx, req.UserID, req.QuizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	defer unlock()

	latest, err := s.ledger.LatestAttempt(ctx, req.UserID, req.QuizID)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("latest attempt: %w", err)
	}

	eval := Score(quiz, req.Answers)
	record := domain.AttemptRecord{
		ID:          s.newID(),
		QuizID:      quiz.ID,
		UserID:      req.UserID,
		Score:       eval.Score,
		TotalScore:  eval.TotalScore,
		CompletedAt: now,
	}

	var stored domain.AttemptRecord
	for try := 0; ; try++ {
		if decision := s.guard.Check(latest, now); !decision.Eligible {
			return cooldownResult(decision), nil
		}
		stored, err = s.ledger.AppendAttempt(ctx, record, latest)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrAttemptConflict) {
			return domain.SubmissionResult{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		// Another writer moved the ledger; answer from its current view.
		latest, err = s.ledger.LatestAttempt(ctx, req.UserID, req.QuizID)
		if err != nil {
			return domain.SubmissionResult{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		if try > 0 {
			if decision := s.guard.Check(latest, now); !decision.Eligible {
				return cooldownResult(decision), nil
			}
			return cooldownResult(s.guard.Contended(now)), nil
		}
	}

	percentage := Percentage(stored.Score, stored.TotalScore)
	return domain.SubmissionResult{
		Outcome: domain.OutcomeScored,
		Scored: &domain.ScoredAttempt{
			Attempt:         stored,
			Score:           stored.Score,
			TotalScore:      stored.TotalScore,
			Percentage:      percentage,
			Results:         BuildReview(quiz, eval),
			CooldownMinutes: s.guard.Minutes(),
			RetryAt:         s.guard.RetryAt(stored.CompletedAt),
		},
	}, nil
}

func (s *SubmissionService) publish(ctx context.Context, log logrus.FieldLogger, scored *domain.ScoredAttempt) {
	if s.publisher == nil {
		return
	}
	event := domain.AttemptCompleted{
		AttemptID:   scored.Attempt.ID,
		UserID:      scored.Attempt.UserID,
		QuizID:      scored.Attempt.QuizID,
		Score:       scored.Score,
		TotalScore:  scored.TotalScore,
		Percentage:  scored.Percentage,
		CompletedAt: scored.Attempt.CompletedAt,
	}
	if err := s.publisher.PublishAttemptCompleted(ctx, event); err != nil {
		log.WithError(err).Warn("publish attempt completed")
	}
}

func (s *SubmissionService) loadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quizID == "" {
		return domain.Quiz{}, fmt.Errorf("%w: quiz id is required", domain.ErrMalformedSubmission)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.Quiz{}, err
		}
		return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *SubmissionService) validateRequest(req domain.SubmissionRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedSubmission, err)
	}
	return nil
}

func cooldownResult(decision domain.CooldownDecision) domain.SubmissionResult {
	var retryAt time.Time
	if decision.RetryAt != nil {
		retryAt = *decision.RetryAt
	}
	return domain.SubmissionResult{
		Outcome: domain.OutcomeCooldown,
		Cooldown: &domain.CooldownRejection{
			RemainingSeconds: decision.RemainingSeconds,
			Message:          decision.Message,
			RetryAt:          retryAt,
		},
	}
}

// normalize drops sub-microsecond precision so records round-trip through Postgres unchanged.
func normalize(now time.Time) time.Time {
	return now.UTC().Truncate(time.Microsecond)
}
