package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// StartEventConsumer connects to RabbitMQ, declares the tickets.issued and
// order.released queues and appends every delivery to <logDir>/tickets.log
// as one human-readable line.  It reconnects with backoff until ctx is
// cancelled.  Messages that cannot be decoded are rejected without
// requeue so a bad payload cannot loop.
func StartEventConsumer(ctx context.Context, url, logDir string) error {
	log := logrus.WithField("component", "event-consumer")
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logDir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("event-consumer: set QoS failed")
	}

	deliveries := make(chan amqp.Delivery)
	done := make(chan struct{})
	defer close(done)
	for _, q := range []string{TicketsIssuedQueue, OrderReleasedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case deliveries <- d:
				case <-done:
					return
				}
			}
		}(msgs)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("connection closed")
		case d := <-deliveries:
			line, err := FormatEventLine(d.RoutingKey, d.Body)
			if err == nil {
				err = appendLine(logDir, line)
			}
			if err != nil {
				logrus.WithError(err).WithField("queue", d.RoutingKey).Error("event-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// FormatEventLine renders one delivery as a single log line.
func FormatEventLine(queue string, body []byte) (string, error) {
	switch queue {
	case TicketsIssuedQueue:
		var ev TicketsIssuedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		codes := make([]string, 0, len(ev.Tickets))
		for _, t := range ev.Tickets {
			codes = append(codes, t.SeatCode+"="+t.TicketCode)
		}
		return fmt.Sprintf("[%s] Tickets issued | order=%s | user_id=%d | session_id=%d | event=%q | session=%q | total=%d cents | tickets=[%s]\n",
			ev.VerifiedAt, ev.OrderCode, ev.UserID, ev.SessionID, ev.EventName, ev.SessionName, ev.TotalCents,
			strings.Join(codes, ",")), nil
	case OrderReleasedQueue:
		var ev OrderReleasedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Order released | order=%s | user_id=%d | session_id=%d | status=%s | seats_freed=%d\n",
			ev.ReleasedAt, ev.OrderCode, ev.UserID, ev.SessionID, ev.Status, ev.SeatsFreed), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queue)
	}
}

func appendLine(logDir, line string) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "tickets.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
