// internal/app/system/workers/mailrelay.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/system/mailer"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	relayPrefetch   = 10
	relayMaxBackoff = 30 * time.Second
	relaySendWait   = 30 * time.Second
)

// MailRelay is a background worker that drains the outgoing mail queue and
// delivers each message through an SMTP sender.
type MailRelay struct {
	url    string
	queue  string
	sender mailer.Sender
	log    *zap.Logger
	dial   func(url string) (*amqp.Connection, error)

	mu       sync.Mutex
	conn     *amqp.Connection
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMailRelay creates a relay consuming queue at url.
func NewMailRelay(url, queue string, sender mailer.Sender, logger *zap.Logger) *MailRelay {
	if queue == "" {
		queue = mailer.DefaultQueue
	}
	return &MailRelay{
		url:    url,
		queue:  queue,
		sender: sender,
		log:    logger,
		dial:   amqp.Dial,
		stopCh: make(chan struct{}),
	}
}

// Start begins the consume loop. It reconnects with backoff until Stop.
func (w *MailRelay) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("mail relay worker started", zap.String("queue", w.queue))
}

// Stop signals the worker to stop and waits for it to finish. Later calls
// are no-ops.
func (w *MailRelay) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.conn != nil {
			_ = w.conn.Close()
		}
		w.mu.Unlock()
		w.wg.Wait()
		w.log.Info("mail relay worker stopped")
	})
}

func (w *MailRelay) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *MailRelay) run() {
	defer w.wg.Done()

	backoff := time.Second
	for !w.stopped() {
		conn, err := w.dial(w.url)
		if err != nil {
			w.log.Warn("mail relay: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !w.sleep(backoff) {
				return
			}
			backoff = min(backoff*2, relayMaxBackoff)
			continue
		}
		backoff = time.Second

		w.mu.Lock()
		if w.stopped() {
			w.mu.Unlock()
			_ = conn.Close()
			return
		}
		w.conn = conn
		w.mu.Unlock()

		if err := w.consume(conn); err != nil && !w.stopped() {
			w.log.Warn("mail relay: consume loop ended, reconnecting", zap.Error(err))
			w.sleep(2 * time.Second)
		}
		_ = conn.Close()
	}
}

// sleep waits d or until Stop; it reports false when stopped.
func (w *MailRelay) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.stopCh:
		return false
	case <-t.C:
		return true
	}
}

func (w *MailRelay) consume(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(relayPrefetch, 0, false); err != nil {
		w.log.Warn("mail relay: set QoS failed", zap.Error(err))
	}
	if err := mailer.DeclareQueue(ch, w.queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		switch w.handle(d.Body, d.Redelivered) {
		case ack:
			_ = d.Ack(false)
		case retry:
			_ = d.Nack(false, true)
		default:
			_ = d.Nack(false, false)
		}
	}
	return errors.New("deliveries channel closed")
}

type verdict int

const (
	ack verdict = iota
	retry
	drop
)

// handle delivers one queued message. A failed send is retried once through
// the broker; undecodable messages are dropped.
func (w *MailRelay) handle(body []byte, redelivered bool) verdict {
	e, err := mailer.DecodeEmail(body)
	if err != nil {
		w.log.Error("mail relay: dropping malformed message", zap.Error(err))
		return drop
	}

	ctx, cancel := context.WithTimeout(context.Background(), relaySendWait)
	defer cancel()

	if err := w.sender.Send(ctx, e); err != nil {
		if redelivered {
			w.log.Error("mail relay: delivery failed, dropping",
				zap.String("to", e.To), zap.String("subject", e.Subject), zap.Error(err))
			return drop
		}
		w.log.Warn("mail relay: delivery failed, requeueing",
			zap.String("to", e.To), zap.Error(err))
		return retry
	}

	w.log.Debug("mail relay: delivered", zap.String("to", e.To))
	return ack
}
