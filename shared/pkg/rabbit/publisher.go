package rabbit

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	HeaderEventID     = "x-event-id"
	HeaderAggregateID = "x-aggregate-id"
)

// ErrNacked means the broker refused a message published in confirm mode.
var ErrNacked = errors.New("rabbit: publish nacked by broker")

// Sender is what producers depend on; *Publisher implements it.
type Sender interface {
	Publish(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error
}

// Publisher sends persistent JSON messages to one exchange. On a channel in
// confirm mode Publish returns only once the broker has acked the message.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	AppID    string
}

func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Headers:      headers,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		AppId:        p.AppID,
	}
	if id, ok := headers[HeaderEventID].(string); ok {
		msg.MessageId = id
	}

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish %s/%s: %w", p.exchange, routingKey, err)
	}
	if dc == nil {
		return nil
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm %s/%s: %w", p.exchange, routingKey, err)
	}
	if !acked {
		return ErrNacked
	}
	return nil
}
