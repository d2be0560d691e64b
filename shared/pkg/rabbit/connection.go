package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Conn is one connection with a single channel shared by a service's
// publishers and its consumer.
type Conn struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

// Connect dials url and opens a channel in publisher-confirm mode.
func Connect(url string) (*Conn, error) {
	c, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := c.Channel()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return &Conn{Conn: c, Ch: ch}, nil
}

// ConnectRetry dials once a second until it succeeds, ctx is done or wait
// has elapsed. In compose the broker is often still booting.
func ConnectRetry(ctx context.Context, url string, wait time.Duration) (*Conn, error) {
	deadline := time.Now().Add(wait)
	for {
		c, err := Connect(url)
		if err == nil {
			return c, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("rabbit unreachable after %s: %w", wait, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// Consume starts a manual-ack consumer on queue. prefetch bounds the number
// of unacked deliveries in flight.
func (c *Conn) Consume(queue, tag string, prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch > 0 {
		if err := c.Ch.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("qos: %w", err)
		}
	}
	return c.Ch.Consume(queue, tag, false, false, false, false, nil)
}

// Closed reports connection loss; workers exit on it and let the
// orchestrator restart them.
func (c *Conn) Closed() <-chan *amqp.Error {
	return c.Conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (c *Conn) Close() error {
	if c.Ch != nil {
		_ = c.Ch.Close()
	}
	if c.Conn != nil {
		return c.Conn.Close()
	}
	return nil
}

// WithTimeout bounds a single publish including its confirm.
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 5*time.Second)
}
