package domain

import "sort"

// AttemptOption is an option as shown to a user who has not submitted yet.
type AttemptOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AttemptQuestion is a question without any correctness data.
type AttemptQuestion struct {
	ID      string          `json:"id"`
	Text    string          `json:"text"`
	Order   int             `json:"order"`
	Options []AttemptOption `json:"options"`
}

// AttemptQuiz is the pre-submission projection of a quiz.
type AttemptQuiz struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	MaterialID  *string           `json:"materialId"`
	Questions   []AttemptQuestion `json:"questions"`
}

// ReviewOption is an option annotated with its correctness after submission.
type ReviewOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// ReviewQuestion is the per-question breakdown returned with a scored attempt.
type ReviewQuestion struct {
	QuestionID         string         `json:"questionId"`
	Question           string         `json:"question"`
	SelectedOptionID   *string        `json:"selectedOptionId"`
	SelectedOptionText *string        `json:"selectedOptionText"`
	CorrectOptionID    string         `json:"correctOptionId"`
	CorrectOptionText  string         `json:"correctOptionText"`
	IsCorrect          bool           `json:"isCorrect"`
	Options            []ReviewOption `json:"options"`
}

// OrderedQuestions returns a copy of the questions sorted by order index.
func (q Quiz) OrderedQuestions() []Question {
	questions := make([]Question, len(q.Questions))
	copy(questions, q.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
	return questions
}

// ToAttemptView strips correctness flags from the quiz.
func (q Quiz) ToAttemptView() AttemptQuiz {
	ordered := q.OrderedQuestions()
	view := AttemptQuiz{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		MaterialID:  q.MaterialID,
		Questions:   make([]AttemptQuestion, 0, len(ordered)),
	}
	for _, question := range ordered {
		options := make([]AttemptOption, 0, len(question.Options))
		for _, opt := range question.Options {
			options = append(options, AttemptOption{ID: opt.ID, Text: opt.Text})
		}
		view.Questions = append(view.Questions, AttemptQuestion{
			ID:      question.ID,
			Text:    question.Text,
			Order:   question.Order,
			Options: options,
		})
	}
	return view
}

// CorrectOption returns the option flagged correct, if any.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// FindOption looks up an option belonging to this question.
func (q Question) FindOption(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}
