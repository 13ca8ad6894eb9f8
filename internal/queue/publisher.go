package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends domain events to RabbitMQ.  Each publish dials, declares
// the target queue and sends one persistent message, so a broker outage
// never leaves a stale connection behind.  Callers treat errors as
// non-fatal: events are emitted after the database commit.
type Publisher struct {
	url string
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishTicketsIssued publishes to the tickets.issued queue.
func (p *Publisher) PublishTicketsIssued(ctx context.Context, ev TicketsIssuedEvent) error {
	return p.publish(ctx, TicketsIssuedQueue, ev)
}

// PublishOrderReleased publishes to the order.released queue.
func (p *Publisher) PublishOrderReleased(ctx context.Context, ev OrderReleasedEvent) error {
	return p.publish(ctx, OrderReleasedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	log := logrus.WithField("queue", queue)

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
