package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tweetnorm/internal/models"
)

// Publisher is the part of *amqp.Channel the sink needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQP publishes every record as a persistent JSON message on a queue through
// the default exchange.
type AMQP struct {
	publisher Publisher
	queue     string
	conn      *amqp.Connection
	channel   *amqp.Channel
}

// DialAMQP connects to RabbitMQ and declares a durable queue.
func DialAMQP(url, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQP{
		publisher: ch,
		queue:     queue,
		conn:      conn,
		channel:   ch,
	}, nil
}

// NewAMQP publishes through an existing publisher. Close is a no-op.
func NewAMQP(publisher Publisher, queue string) *AMQP {
	return &AMQP{publisher: publisher, queue: queue}
}

// Write implements Sink.
func (a *AMQP) Write(ctx context.Context, rec *models.NormalizedRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    rec.ID,
		Timestamp:    time.Now().UTC(),
		Type:         "tweet.normalized",
		Body:         body,
	}

	if err := a.publisher.PublishWithContext(ctx, "", a.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish record %s: %w", rec.ID, err)
	}

	return nil
}

// Close closes the channel and connection opened by DialAMQP.
func (a *AMQP) Close() error {
	if a.channel != nil {
		_ = a.channel.Close()
	}

	if a.conn != nil {
		return a.conn.Close()
	}

	return nil
}
