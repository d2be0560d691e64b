package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

const HeaderAttempts = "x-attempts"

func GetAttempts(h amqp.Table) int32 {
	if h == nil {
		return 0
	}
	switch t := h[HeaderAttempts].(type) {
	case int32:
		return t
	case int64:
		return int32(t)
	case int:
		return int32(t)
	case float64:
		return int32(t)
	default:
		return 0
	}
}

// RetryOrDLQ republishes the delivery to the retry exchange with routing key
// "<service>.<originalRK>" and attempts+1, or to the DLX under dlqKey once
// attempts reached maxAttempts. The original delivery is acked only after the
// republish succeeded; otherwise it is nacked with requeue.
func RetryOrDLQ(ctx context.Context, d amqp.Delivery, service string, maxAttempts int32, retryPub, dlqPub Sender, dlqKey string) error {
	attempts := GetAttempts(d.Headers)

	h := amqp.Table{}
	for k, v := range d.Headers {
		h[k] = v
	}

	pubCtx, cancel := WithTimeout(ctx)
	defer cancel()

	var err error
	if attempts >= maxAttempts {
		h[HeaderAttempts] = attempts
		err = dlqPub.Publish(pubCtx, dlqKey, d.Body, h)
	} else {
		h[HeaderAttempts] = attempts + 1
		err = retryPub.Publish(pubCtx, service+"."+d.RoutingKey, d.Body, h)
	}
	if err != nil {
		_ = d.Nack(false, true)
		return err
	}
	return d.Ack(false)
}
