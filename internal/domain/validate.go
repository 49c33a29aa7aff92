package domain

import "fmt"

// Validate checks that the quiz can be attempted and scored.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %s has no questions", ErrQuizNotAttemptable, q.ID)
	}
	seenOrder := make(map[int]string, len(q.Questions))
	seenID := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if _, dup := seenID[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %s", ErrQuizNotAttemptable, question.ID)
		}
		seenID[question.ID] = struct{}{}
		if other, dup := seenOrder[question.Order]; dup {
			return fmt.Errorf("%w: questions %s and %s share order %d", ErrQuizNotAttemptable, other, question.ID, question.Order)
		}
		seenOrder[question.Order] = question.ID

		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %s has fewer than 2 options", ErrQuizNotAttemptable, question.ID)
		}
		correct := 0
		for _, opt := range question.Options {
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: question %s has %d correct options", ErrQuizNotAttemptable, question.ID, correct)
		}
	}
	return nil
}
