package domain

import "time"

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Order   int      `json:"order"`
	Options []Option `json:"options"`
}

// Quiz is an ordered collection of questions, optionally linked to a material.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	MaterialID  *string    `json:"materialId,omitempty"` // nil for standalone quizzes
	Questions   []Question `json:"questions"`
}

// Standalone reports whether the quiz has no associated material.
func (q Quiz) Standalone() bool {
	return q.MaterialID == nil
}

// AttemptRecord is one completed, scored attempt. Records are never updated.
type AttemptRecord struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	Score       int       `json:"score"`
	TotalScore  int       `json:"totalScore"`
	CompletedAt time.Time `json:"completedAt"`
}

// SubmissionRequest is the full answer set sent at the end of an attempt.
// A missing question entry means no selection.
type SubmissionRequest struct {
	UserID  string `validate:"required,max=128"`
	QuizID  string `validate:"required,max=128"`
	Answers map[string]string
}

// QuestionEvaluation is the scoring outcome for one question.
type QuestionEvaluation struct {
	QuestionID       string
	SelectedOptionID string // empty when nothing valid was selected
	IsCorrect        bool
}

// Evaluation is the result of scoring a submission against a quiz.
type Evaluation struct {
	Score       int
	TotalScore  int
	PerQuestion []QuestionEvaluation
}

// CooldownDecision is the guard's verdict for a (user, quiz) pair.
type CooldownDecision struct {
	Eligible         bool       `json:"eligible"`
	RetryAt          *time.Time `json:"retryAt,omitempty"` // nil when the user never attempted the quiz
	RemainingSeconds int        `json:"remainingSeconds"`
	Message          string     `json:"message,omitempty"`
}

// Outcome distinguishes the two terminal states of a submission.
type Outcome int

const (
	OutcomeScored Outcome = iota + 1
	OutcomeCooldown
)

// ScoredAttempt is returned after a submission was scored and persisted.
type ScoredAttempt struct {
	Attempt         AttemptRecord    `json:"-"`
	Score           int              `json:"score"`
	TotalScore      int              `json:"totalScore"`
	Percentage      int              `json:"percentage"`
	Results         []ReviewQuestion `json:"results"`
	CooldownMinutes int              `json:"cooldownMinutes"`
	RetryAt         time.Time        `json:"retryAt"`
}

// CooldownRejection is returned when a submission arrives inside the cooldown window.
type CooldownRejection struct {
	RemainingSeconds int       `json:"remainingSeconds"`
	Message          string    `json:"message"`
	RetryAt          time.Time `json:"-"`
}

// SubmissionResult holds exactly one of Scored or Cooldown, selected by Outcome.
type SubmissionResult struct {
	Outcome  Outcome
	Scored   *ScoredAttempt
	Cooldown *CooldownRejection
}

// AttemptCompleted is published once an attempt has been durably recorded.
type AttemptCompleted struct {
	AttemptID   string    `json:"attemptId"`
	UserID      string    `json:"userId"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	TotalScore  int       `json:"totalScore"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}
