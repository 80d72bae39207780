package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LogPath is where the consumer appends one line per event.
var LogPath = filepath.Join("logs", "booking.log")

// StartBookingConsumer connects to RabbitMQ, declares every event queue and
// appends each delivery to LogPath.  It reconnects with backoff and returns
// only when ctx is cancelled.  A message that cannot be handled is rejected
// without requeue so the loop keeps going.
func StartBookingConsumer(ctx context.Context, url string) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

func consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}

	deliveries := make(chan amqp.Delivery)
	for _, q := range Queues {
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
				case <-ctx.Done():
					return
				}
			}
		}(msgs)
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("channel closed")
		case d := <-deliveries:
			if err := handleMessage(d.RoutingKey, d.Body); err != nil {
				log.Printf("booking-consumer: handle %s failed: %v", d.RoutingKey, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(queue string, body []byte) error {
	line, err := FormatLogLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLogLine renders one event body as a single log line ending in a
// newline.
func FormatLogLine(queue string, body []byte) (string, error) {
	switch queue {
	case QueueReservationCreated:
		var ev ReservationCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		items := make([]string, 0, len(ev.Items))
		for _, it := range ev.Items {
			items = append(items, fmt.Sprintf("%dx%s", it.Quantity, it.Name))
		}
		vip := ev.VipCode
		if vip == "" {
			vip = "-"
		}
		return fmt.Sprintf("[%s] Reservation created | reservation_id=%d | mesa=%q | date=%s | slot=%s | party=%d | contact=%q | vip=%s | total=%d cents | items=[%s]\n",
			ev.CreatedAt, ev.ReservationID, ev.MesaName, ev.Date, ev.TimeSlot, ev.PartySize, ev.ContactName, vip, ev.TotalCents, strings.Join(items, ",")), nil
	case QueueReservationPaid:
		var ev ReservationPaidEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Reservation paid | reservation_id=%d | session=%s | payer=%q | total=%d cents\n",
			ev.PaidAt, ev.ReservationID, ev.SessionID, ev.PayerEmail, ev.TotalCents), nil
	case QueueGuestListRegistered:
		var ev GuestListRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Guest list registration | entry_id=%d | date=%s | name=%q | invited=%d | code=%s\n",
			ev.RegisteredAt, ev.EntryID, ev.Date, ev.Name, ev.InvitedCount, ev.ConfirmationCode), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
