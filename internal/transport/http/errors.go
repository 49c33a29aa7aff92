package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quiz-attempt-service/internal/domain"
)

type errorPayload struct {
	Message string `json:"message"`
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedSubmission):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotAttemptable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPersistence), errors.Is(err, domain.ErrLockUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal failure details from callers.
func publicMessage(err error) string {
	switch statusFor(err) {
	case http.StatusServiceUnavailable:
		return "attempt could not be recorded, please retry"
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorPayload{Message: publicMessage(err)})
}
