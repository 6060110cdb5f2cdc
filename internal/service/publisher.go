// Package service holds the booking and scheduling flows that span more
// than one repository call, plus the broker publisher they report to.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/queue"
)

// Publisher delivers domain events to the broker.
type Publisher interface {
	PublishTicketBooked(ctx context.Context, ev queue.TicketBookedEvent) error
}

// AMQPPublisher publishes persistent JSON messages to RabbitMQ.  Each call
// dials its own connection.
type AMQPPublisher struct {
	URL string
	Log *zap.Logger
}

// NewAMQPPublisher returns a publisher for url.
func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &AMQPPublisher{URL: url, Log: log}
}

// PublishTicketBooked sends ev to the ticket.booked queue.
func (p *AMQPPublisher) PublishTicketBooked(ctx context.Context, ev queue.TicketBookedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publish(ctx, queue.TicketBookedQueue, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.Log.Debug("event published", zap.String("queue", queueName), zap.Int("bytes", len(body)))
	return nil
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

// PublishTicketBooked implements Publisher.
func (NopPublisher) PublishTicketBooked(context.Context, queue.TicketBookedEvent) error { return nil }
