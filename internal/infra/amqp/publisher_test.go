package amqp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/streadway/amqp"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	closed   bool
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key = exchange, key
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublishAttemptCompleted(t *testing.T) {
	ch := &fakeChannel{}
	publisher := &EventPublisher{exchange: "portal.events", channel: ch}

	event := domain.AttemptCompleted{
		AttemptID:   "a1",
		UserID:      "u1",
		QuizID:      "quiz-1",
		Score:       3,
		TotalScore:  4,
		Percentage:  75,
		CompletedAt: time.Date(2024, 4, 4, 12, 0, 0, 0, time.UTC),
	}
	if err := publisher.PublishAttemptCompleted(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if ch.exchange != "portal.events" || ch.key != RoutingKeyAttemptCompleted || len(ch.msgs) != 1 {
		t.Fatalf("unexpected publish exchange=%s key=%s msgs=%d", ch.exchange, ch.key, len(ch.msgs))
	}
	msg := ch.msgs[0]
	if msg.MessageId != "a1" || msg.ContentType != "application/json" {
		t.Fatalf("unexpected message metadata %+v", msg)
	}

	var decoded struct {
		Type    string                  `json:"type"`
		Payload domain.AttemptCompleted `json:"payload"`
	}
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Type != RoutingKeyAttemptCompleted || decoded.Payload.Score != 3 || decoded.Payload.Percentage != 75 {
		t.Fatalf("unexpected body %+v", decoded)
	}

	publisher.Close()
	if !ch.closed {
		t.Fatalf("expected channel closed")
	}
}

func TestPublishSkipsCanceledContext(t *testing.T) {
	ch := &fakeChannel{}
	publisher := &EventPublisher{exchange: "portal.events", channel: ch}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := publisher.PublishAttemptCompleted(ctx, domain.AttemptCompleted{AttemptID: "a1"}); err == nil {
		t.Fatalf("expected context error")
	}
	if len(ch.msgs) != 0 {
		t.Fatalf("nothing should be published on a canceled context")
	}
}
