package app

import (
	"math"

	"quiz-attempt-service/internal/domain"
)

// BuildReview pairs each scored question with its options, correctness included.
func BuildReview(quiz domain.Quiz, eval domain.Evaluation) []domain.ReviewQuestion {
	byID := make(map[string]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byID[q.ID] = q
	}

	review := make([]domain.ReviewQuestion, 0, len(eval.PerQuestion))
	for _, result := range eval.PerQuestion {
		question := byID[result.QuestionID]
		item := domain.ReviewQuestion{
			QuestionID: question.ID,
			Question:   question.Text,
			IsCorrect:  result.IsCorrect,
			Options:    make([]domain.ReviewOption, 0, len(question.Options)),
		}
		if correct, ok := question.CorrectOption(); ok {
			item.CorrectOptionID = correct.ID
			item.CorrectOptionText = correct.Text
		}
		if result.SelectedOptionID != "" {
			if selected, ok := question.FindOption(result.SelectedOptionID); ok {
				id, text := selected.ID, selected.Text
				item.SelectedOptionID = &id
				item.SelectedOptionText = &text
			}
		}
		for _, opt := range question.Options {
			item.Options = append(item.Options, domain.ReviewOption{
				ID:        opt.ID,
				Text:      opt.Text,
				IsCorrect: opt.Correct,
			})
		}
		review = append(review, item)
	}
	return review
}

// Percentage rounds score/total to the nearest whole percent.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
