package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer listens to the ticket.booked queue, appends one line per ticket
// to <LogDir>/booking.log and, when a Mailer is set, e-mails the ticket.
type Consumer struct {
	URL    string
	LogDir string
	Mailer Mailer
	Log    *zap.Logger

	mu sync.Mutex // serialises writes to booking.log
}

// NewConsumer builds a Consumer.  A nil logger is replaced by a no-op one.
func NewConsumer(url, logDir string, mailer Mailer, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{URL: url, LogDir: logDir, Mailer: mailer, Log: log}
}

// Run keeps a connection to the broker and consumes until ctx is done.
// Dial failures back off exponentially up to 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("booking consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("booking consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("booking consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(TicketBookedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(TicketBookedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.Error("booking consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // do not requeue: a bad payload would loop
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body.  A malformed payload or a log write
// failure is returned as an error; a mail failure is only logged.
func (c *Consumer) Handle(body []byte) error {
	var ev TicketBookedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.TicketID == 0 || ev.ShowtimeID == 0 {
		return errors.New("event without ticket or showtime id")
	}
	if err := c.appendLog(ev); err != nil {
		return err
	}
	if c.Mailer != nil && ev.Email != "" {
		if err := c.Mailer.SendTicket(ev); err != nil {
			c.Log.Error("booking consumer: send mail failed", zap.Uint64("ticket_id", ev.TicketID), zap.Error(err))
		}
	}
	return nil
}

// LogLine renders the booking.log entry of an event.
func LogLine(ev TicketBookedEvent) string {
	return fmt.Sprintf("[%s] Ticket booked | event_id=%s | ticket_id=%d | user_id=%d | showtime_id=%d | dip=%q | aula=%d | seminar=%q | starts_at=%s | seats=[%s]\n",
		ev.BookedAt.UTC().Format(time.RFC3339), ev.EventID, ev.TicketID, ev.UserID, ev.ShowtimeID,
		ev.Department, ev.RoomNumber, ev.Seminar, ev.StartsAt.UTC().Format(time.RFC3339), strings.Join(ev.Seats, ","))
}

func (c *Consumer) appendLog(ev TicketBookedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(LogLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
