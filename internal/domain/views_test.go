package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAttemptViewNeverCarriesCorrectness(t *testing.T) {
	material := "m-1"
	quiz := Quiz{
		ID:         "quiz-1",
		Title:      "Rivers",
		MaterialID: &material,
		Questions: []Question{
			{ID: "q2", Text: "Longest river?", Order: 2, Options: []Option{{ID: "a", Text: "Nile", Correct: true}, {ID: "b", Text: "Thames"}}},
			{ID: "q1", Text: "Wettest river?", Order: 1, Options: []Option{{ID: "c", Text: "Amazon", Correct: true}, {ID: "d", Text: "Danube"}}},
		},
	}

	view := quiz.ToAttemptView()
	if view.Questions[0].ID != "q1" || view.Questions[1].ID != "q2" {
		t.Fatalf("expected questions in order index order, got %+v", view.Questions)
	}
	if view.MaterialID == nil || *view.MaterialID != "m-1" || quiz.Standalone() {
		t.Fatalf("material link lost: %+v", view.MaterialID)
	}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(data)), "correct") {
		t.Fatalf("attempt view leaked correctness: %s", data)
	}

	// The source quiz keeps its original order.
	if quiz.Questions[0].ID != "q2" {
		t.Fatalf("OrderedQuestions must not reorder the quiz in place")
	}
}
