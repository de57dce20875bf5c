package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeCallRecorded MessageType = "call.recorded"
	MessageTypeJobReady     MessageType = "job.ready"
	MessageTypeJobCompleted MessageType = "job.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// CallRecordedPayload — payload для сообщения о новой записи звонка.
type CallRecordedPayload struct {
	CallID uuid.UUID `json:"call_id"`
}

// JobReadyPayload — payload для сообщения о готовой задаче обработки.
type JobReadyPayload struct {
	JobID  uuid.UUID `json:"job_id"`
	CallID uuid.UUID `json:"call_id"`
}

// JobCompletedPayload — payload для сообщения о завершённой задаче.
type JobCompletedPayload struct {
	JobID   uuid.UUID `json:"job_id"`
	CallID  uuid.UUID `json:"call_id"`
	Stage   string    `json:"stage"`
	Status  string    `json:"status"` // SUCCEEDED или FAILED
	Error   string    `json:"error,omitempty"`
	Attempt int       `json:"attempt"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishCallRecorded публикует событие о новой записи звонка.
// Потребитель: Pipeline.
func (p *Publisher) PublishCallRecorded(ctx context.Context, callID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeCallRecorded,
		Payload:   CallRecordedPayload{CallID: callID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeCalls, RoutingKeyRecorded, msg)
}

// PublishJobReady публикует событие о задаче, готовой к выполнению.
// Потребитель: Worker.
func (p *Publisher) PublishJobReady(ctx context.Context, jobID, callID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeJobReady,
		Payload:   JobReadyPayload{JobID: jobID, CallID: callID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyReady, msg)
}

// PublishJobCompleted публикует событие о завершённой задаче.
// Потребитель: Pipeline.
func (p *Publisher) PublishJobCompleted(ctx context.Context, payload JobCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeJobCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyCompleted, msg)
}
