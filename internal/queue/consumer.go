package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// EventLogFile is the file name the consumer appends to inside its
// directory.
const EventLogFile = "booking-events.log"

// EventLogConsumer reads booking events from the queue and appends one
// line per event to <Dir>/booking-events.log.
type EventLogConsumer struct {
	URL   string
	Queue string
	Dir   string
	Log   *zerolog.Logger
}

// NewEventLogConsumer returns a consumer writing into dir.
func NewEventLogConsumer(url, queue, dir string, log *zerolog.Logger) *EventLogConsumer {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &EventLogConsumer{URL: url, Queue: queue, Dir: dir, Log: log}
}

// Run connects to RabbitMQ, declares the queue and consumes messages
// until ctx is cancelled.  Connection failures are retried with an
// exponential backoff capped at 30 seconds.  A message that cannot be
// handled is rejected without requeue so a poison message cannot stall
// the loop.
func (c *EventLogConsumer) Run(ctx context.Context) error {
	url := c.URL
	if url == "" {
		url = DefaultURL
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("event-consumer: dial failed")
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
		c.Log.Warn().Err(err).Msg("event-consumer: consume loop ended, reconnecting")
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

func (c *EventLogConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	queue := c.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn().Err(err).Msg("event-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
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
			if err := c.HandleMessage(d.Body); err != nil {
				c.Log.Error().Err(err).Str("message_id", d.MessageId).Msg("event-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends it to the event log.
func (c *EventLogConsumer) HandleMessage(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.EventID == "" || ev.Type == "" {
		return errors.New("event without id or type")
	}
	dir := c.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, EventLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatEvent renders ev as a single log line terminated by a newline.
func FormatEvent(ev BookingEvent) string {
	transition := string(ev.NewStatus)
	if ev.OldStatus != "" && ev.OldStatus != ev.NewStatus {
		transition = fmt.Sprintf("%s->%s", ev.OldStatus, ev.NewStatus)
	}
	line := fmt.Sprintf("[%s] %s | event_id=%s | booking_id=%d | room_id=%d | requester_id=%d | actor_id=%d | status=%s | window=%s/%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.EventID, ev.BookingID, ev.RoomID,
		ev.RequesterID, ev.ActorID, transition,
		ev.StartTime.UTC().Format(time.RFC3339), ev.EndTime.UTC().Format(time.RFC3339))
	if ev.Reason != "" {
		line += fmt.Sprintf(" | reason=%q", ev.Reason)
	}
	return line + "\n"
}
