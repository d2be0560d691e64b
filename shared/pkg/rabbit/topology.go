package rabbit

import amqp "github.com/rabbitmq/amqp091-go"

const (
	ExchangeEvents = "store.events"
	ExchangeRetry  = "store.retry"
	ExchangeDLX    = "store.dlx"
)

func DeclareBase(ch *amqp.Channel) error {
	for _, name := range []string{ExchangeEvents, ExchangeRetry, ExchangeDLX} {
		if err := ch.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}

type QueueSpec struct {
	Name     string
	BindKeys []string // routing keys on ExchangeEvents
	DLQ      string   // dlq routing key and queue name
}

func DeclareQueueWithDLQ(ch *amqp.Channel, q QueueSpec) error {
	args := amqp.Table{}
	if q.DLQ != "" {
		args["x-dead-letter-exchange"] = ExchangeDLX
		args["x-dead-letter-routing-key"] = q.DLQ
	}

	if _, err := ch.QueueDeclare(q.Name, true, false, false, false, args); err != nil {
		return err
	}
	for _, key := range q.BindKeys {
		if err := ch.QueueBind(q.Name, key, ExchangeEvents, false, nil); err != nil {
			return err
		}
	}

	if q.DLQ != "" {
		if _, err := ch.QueueDeclare(q.DLQ, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(q.DLQ, q.DLQ, ExchangeDLX, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// DeclareRetryQueue creates a queue bound to ExchangeRetry with bindKey
// (usually "<service>.<originalRK>"). After ttlMs the message dead-letters
// back to ExchangeEvents with deadRoutingKey.
func DeclareRetryQueue(ch *amqp.Channel, name, bindKey, deadRoutingKey string, ttlMs int) error {
	args := amqp.Table{
		"x-message-ttl":             int32(ttlMs),
		"x-dead-letter-exchange":    ExchangeEvents,
		"x-dead-letter-routing-key": deadRoutingKey,
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
		return err
	}
	return ch.QueueBind(name, bindKey, ExchangeRetry, false, nil)
}
