package app

import "quiz-attempt-service/internal/domain"

// Score evaluates answers against the quiz in question order. Unknown or foreign
// option ids count as no selection; they never fail the submission.
func Score(quiz domain.Quiz, answers map[string]string) domain.Evaluation {
	questions := quiz.OrderedQuestions()
	eval := domain.Evaluation{
		TotalScore:  len(questions),
		PerQuestion: make([]domain.QuestionEvaluation, 0, len(questions)),
	}
	for _, question := range questions {
		result := domain.QuestionEvaluation{QuestionID: question.ID}
		if optionID, ok := answers[question.ID]; ok {
			if opt, found := question.FindOption(optionID); found {
				result.SelectedOptionID = opt.ID
				result.IsCorrect = opt.Correct
			}
		}
		if result.IsCorrect {
			eval.Score++
		}
		eval.PerQuestion = append(eval.PerQuestion, result)
	}
	return eval
}
