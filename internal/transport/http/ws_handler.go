package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSHandler runs one quiz attempt per websocket connection: the quiz is pushed on
// connect and the session ends once a submission is scored or rejected by cooldown.
type WSHandler struct {
	service  *app.SubmissionService
	upgrader websocket.Upgrader
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewWSHandler(service *app.SubmissionService, log logrus.FieldLogger, now func() time.Time) *WSHandler {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSHandler{
		service: service,
		now:     now,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type submitPayload struct {
	Answers map[string]string `json:"answers"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request and drives the attempt session.
// Browsers cannot set headers on websocket requests, so userId may come from the query.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		userID = strings.TrimSpace(r.URL.Query().Get("userId"))
	}
	if userID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}
	log := h.log.WithFields(logrus.Fields{"user_id": userID, "quiz_id": quizID})

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	view, err := h.service.AttemptView(r.Context(), quizID)
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: publicMessage(err)}})
		return
	}

	send := make(chan outboundMessage, 4)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt finished"))
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					log.WithError(err).Debug("ws write error")
					close(done)
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					close(done)
					return
				}
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	emit := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-done:
			return false
		}
	}

	if emit(outboundMessage{Type: "quiz", Payload: view}) {
		h.readLoop(r, conn, log, quizID, userID, emit)
	}
	close(send)
	<-writerDone
}

func (h *WSHandler) readLoop(r *http.Request, conn *websocket.Conn, log logrus.FieldLogger, quizID, userID string, emit func(outboundMessage) bool) {
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		if inbound.Type != "submit" {
			if !emit(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}) {
				return
			}
			continue
		}

		var payload submitPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			if !emit(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid submit payload"}}) {
				return
			}
			continue
		}

		result, err := h.service.Submit(r.Context(), userID, quizID, payload.Answers, h.now())
		if err != nil {
			log.WithError(err).Debug("ws submission failed")
			if !emit(outboundMessage{Type: "error", Payload: errorPayload{Message: publicMessage(err)}}) {
				return
			}
			continue
		}

		switch result.Outcome {
		case domain.OutcomeCooldown:
			emit(outboundMessage{Type: "cooldown", Payload: result.Cooldown})
		default:
			emit(outboundMessage{Type: "scored", Payload: result.Scored})
		}
		return
	}
}
