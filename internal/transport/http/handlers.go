package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// UserIDHeader carries the authenticated caller, set by the upstream gateway.
const UserIDHeader = "X-User-ID"

// Handler serves the REST surface of the attempt engine.
type Handler struct {
	service *app.SubmissionService
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewHandler(service *app.SubmissionService, log logrus.FieldLogger, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{service: service, now: now, log: log}
}

type submitBody struct {
	QuizID  string            `json:"quizId,omitempty"`
	Answers map[string]string `json:"answers"`
}

type historyResponse struct {
	QuizID   string                 `json:"quizId"`
	Attempts []domain.AttemptRecord `json:"attempts"`
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

// Submit scores the caller's answers, or answers 429 inside the cooldown window.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	quizID := mux.Vars(r)["quizId"]

	var body submitBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid json body", domain.ErrMalformedSubmission))
		return
	}
	if body.QuizID != "" && body.QuizID != quizID {
		writeError(w, fmt.Errorf("%w: quiz id in body does not match path", domain.ErrMalformedSubmission))
		return
	}

	result, err := h.service.Submit(r.Context(), userID, quizID, body.Answers, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSubmission(w, result)
}

func writeSubmission(w http.ResponseWriter, result domain.SubmissionResult) {
	switch result.Outcome {
	case domain.OutcomeCooldown:
		w.Header().Set("Retry-After", strconv.Itoa(result.Cooldown.RemainingSeconds))
		writeJSON(w, http.StatusTooManyRequests, result.Cooldown)
	default:
		writeJSON(w, http.StatusOK, result.Scored)
	}
}

// AttemptView returns the quiz for attempting, without correct answers.
func (h *Handler) AttemptView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.AttemptView(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	decision, err := h.service.Eligibility(r.Context(), userID, mux.Vars(r)["quizId"], h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	quizID := mux.Vars(r)["quizId"]
	records, err := h.service.History(r.Context(), userID, quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.AttemptRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{QuizID: quizID, Attempts: records})
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: "missing " + UserIDHeader + " header"})
		return "", false
	}
	return userID, true
}
