package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/streadway/amqp"
)

// RoutingKeyAttemptCompleted is used for every recorded attempt.
const RoutingKeyAttemptCompleted = "quiz.attempt.completed"

type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher publishes attempt events to a topic exchange.
type EventPublisher struct {
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex
	channel channel
}

type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *EventPublisher) PublishAttemptCompleted(ctx context.Context, event domain.AttemptCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(envelope{Type: RoutingKeyAttemptCompleted, Payload: event})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Publish(
		p.exchange,
		RoutingKeyAttemptCompleted,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.AttemptID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (p *EventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
