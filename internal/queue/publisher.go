package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-booking/internal/logger"
)

// Publisher sends booking events to RabbitMQ.  It dials per publish, which
// keeps it free of connection state at the cost of latency; publishing is
// off the reservation critical path.
type Publisher struct {
	url string
}

// NewPublisher returns a publisher for the given AMQP URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishBookingConfirmed publishes a persistent message to the
// booking.confirmed queue.  Errors are logged and returned so the caller
// can ignore them.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	log := logger.WithContext(ctx).With("component", "booking-publisher", "booking_id", event.BookingID)

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Warn("rabbitmq dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(BookingQueueName, true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.BookingID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", BookingQueueName, false, false, pub); err != nil {
		log.Warn("rabbitmq publish failed", "error", err)
		return err
	}
	return nil
}
