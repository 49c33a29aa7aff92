package http

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the REST and websocket endpoints behind recovery, CORS and access logging.
func NewRouter(api *Handler, ws *WSHandler, log *logrus.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", api.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/ws/attempt", ws.ServeWS)

	r.HandleFunc("/quizzes/{quizId}", api.AttemptView).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{quizId}/eligibility", api.Eligibility).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{quizId}/attempts", api.History).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{quizId}/submissions", api.Submit).Methods(http.MethodPost)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", UserIDHeader}),
	)

	var h http.Handler = cors(r)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(log), handlers.PrintRecoveryStack(false))(h)
	return handlers.CombinedLoggingHandler(log.WriterLevel(logrus.InfoLevel), h)
}
