// internal/app/system/mailer/queue.go
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultQueue is the durable queue outgoing mail is published to.
const DefaultQueue = "mail.outgoing"

// Queue is a Sender that publishes mail to RabbitMQ for the mail relay worker
// to deliver. Send returns once the broker has the message.
type Queue struct {
	url  string
	name string
	log  *zap.Logger
	dial func(url string) (*amqp.Connection, error)
}

// NewQueue returns a Queue publishing to the named queue at url.
func NewQueue(url, name string, logger *zap.Logger) *Queue {
	if name == "" {
		name = DefaultQueue
	}
	return &Queue{url: url, name: name, log: logger, dial: amqp.Dial}
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Send publishes e as a persistent JSON message.
func (q *Queue) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	conn, err := q.dial(q.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := DeclareQueue(ch, q.name); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.name, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}

	q.log.Debug("email queued", zap.String("queue", q.name), zap.String("to", e.To))
	return nil
}

// DeclareQueue declares the durable mail queue. Publisher and relay both call
// it so either may start first.
func DeclareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp declare %s: %w", name, err)
	}
	return nil
}

// DecodeEmail parses a queued message body.
func DecodeEmail(body []byte) (Email, error) {
	var e Email
	if err := json.Unmarshal(body, &e); err != nil {
		return Email{}, fmt.Errorf("unmarshal email: %w", err)
	}
	if e.To == "" {
		return Email{}, fmt.Errorf("queued email has no recipient")
	}
	return e, nil
}
