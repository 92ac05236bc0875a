package rabbitmq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher schedules deferred room-expiry checks. A check is published to
// the delay queue with a per-message TTL; when the TTL lapses the message
// dead-letters into the main queue where the sweeper picks it up. Malformed
// or poisoned deliveries dead-letter from the main queue into the DLQ.
type Publisher struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	roomTTL time.Duration
}

type ExpiryMessage struct {
	RoomID string `json:"room_id"`
}

func NewPublisher(url, queue string, roomTTL time.Duration) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := DeclareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, queue: queue, roomTTL: roomTTL}, nil
}

// DeclareTopology declares the main queue, its delay queue and the DLQ.
// Publisher and sweeper both declare so either can start first.
func DeclareTopology(ch *amqp.Channel, queue string) error {
	mainQ := queue
	delayQ := queue + ".delay"
	dlqQ := queue + ".dlq"

	if _, err := ch.QueueDeclare(
		dlqQ,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}

	// Delay queue: message TTL -> dead-letter into the main queue
	if _, err := ch.QueueDeclare(
		delayQ,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": mainQ,
		},
	); err != nil {
		return err
	}

	// Main queue: dead-letter to DLQ on reject/nack(requeue=false)
	if _, err := ch.QueueDeclare(
		mainQ,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQ,
		},
	); err != nil {
		return err
	}

	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// ScheduleExpiry queues an expiry check for the room after the full TTL.
func (p *Publisher) ScheduleExpiry(ctx context.Context, roomID string) error {
	return p.ScheduleExpiryIn(ctx, roomID, p.roomTTL)
}

// ScheduleExpiryIn queues an expiry check after an explicit delay; the
// sweeper uses it to re-arm rooms that were still active.
func (p *Publisher) ScheduleExpiryIn(ctx context.Context, roomID string, delay time.Duration) error {
	body, err := json.Marshal(ExpiryMessage{RoomID: roomID})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",               // default exchange
		p.queue+".delay", // routing key = delay queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		},
	)
}
