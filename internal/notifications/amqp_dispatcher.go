package notifications

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConfirmationQueue is the durable queue the mail worker consumes from.
const ConfirmationQueue = "booking.confirmed"

// AMQPDispatcher publishes booking confirmations to RabbitMQ. Messages are
// persistent so they survive a broker restart while waiting for the mail
// worker. Each dispatch opens its own connection; confirmation volume is a
// fraction of request volume, so connection reuse is not worth the
// reconnect handling it would need.
type AMQPDispatcher struct {
	url string
}

func NewAMQPDispatcher(url string) *AMQPDispatcher {
	return &AMQPDispatcher{url: url}
}

func (d *AMQPDispatcher) DispatchBookingConfirmed(ctx context.Context, confirmation BookingConfirmation) error {
	conn, err := amqp.Dial(d.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so queued confirmations survive restarts.
	if _, err := ch.QueueDeclare(ConfirmationQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(confirmation)
	if err != nil {
		log.Printf("rabbitmq: marshal confirmation failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", ConfirmationQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
