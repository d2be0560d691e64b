package worker

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"superfoods-store/services/notification-service/internal/metrics"
	"superfoods-store/services/notification-service/internal/notify"
	"superfoods-store/shared/pkg/models"
	"superfoods-store/shared/pkg/rabbit"
)

type ProcessedStore interface {
	TryMark(ctx context.Context, eventID, eventType, aggregateID string) (bool, error)
	Unmark(ctx context.Context, eventID string) error
}

type Consumer struct {
	Log       zerolog.Logger
	Processed ProcessedStore
	Mailer    notify.Mailer

	RetryPub rabbit.Sender
	DLQPub   rabbit.Sender

	Service     string
	MaxAttempts int
	DLQKey      string
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("notification consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notification consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

// deadLetter skips the retry queues: the message can never succeed.
func (c *Consumer) deadLetter(ctx context.Context, d amqp.Delivery, reason string) {
	metrics.NotificationsFailedTotal.WithLabelValues(reason).Inc()
	if err := rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("dlq publish failed")
	}
}

func (c *Consumer) retry(ctx context.Context, d amqp.Delivery, reason string) {
	metrics.NotificationsFailedTotal.WithLabelValues(reason).Inc()
	if err := rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("retry publish failed")
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt models.Event[json.RawMessage]
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad json -> dlq")
		c.deadLetter(ctx, d, "bad_json")
		return
	}
	if evt.ID == "" || evt.AggregateID == "" {
		c.Log.Error().Str("rk", d.RoutingKey).Msg("missing id/aggregate_id -> dlq")
		c.deadLetter(ctx, d, "missing_ids")
		return
	}

	msg, err := render(d.RoutingKey, evt)
	if errors.Is(err, errUnhandled) {
		c.Log.Warn().Str("rk", d.RoutingKey).Str("event_id", evt.ID).Msg("unexpected routing key -> ack")
		_ = d.Ack(false)
		return
	}
	if err != nil {
		c.Log.Error().Err(err).Str("event_id", evt.ID).Str("rk", d.RoutingKey).Msg("bad payload -> dlq")
		c.deadLetter(ctx, d, "bad_payload")
		return
	}

	ok, err := c.Processed.TryMark(ctx, evt.ID, d.RoutingKey, evt.AggregateID)
	if err != nil {
		c.Log.Error().Err(err).Str("event_id", evt.ID).Msg("try mark processed failed -> retry/dlq")
		c.retry(ctx, d, "store")
		return
	}
	if !ok {
		metrics.DuplicateEventsTotal.Inc()
		_ = d.Ack(false)
		c.Log.Debug().Str("event_id", evt.ID).Msg("duplicate event ignored")
		return
	}

	if err := c.Mailer.Send(ctx, msg); err != nil {
		if uerr := c.Processed.Unmark(ctx, evt.ID); uerr != nil {
			c.Log.Error().Err(uerr).Str("event_id", evt.ID).Msg("unmark processed failed")
		}
		c.Log.Error().Err(err).Str("order_id", evt.AggregateID).Msg("send failed -> retry/dlq")
		c.retry(ctx, d, "send")
		return
	}

	_ = d.Ack(false)
	metrics.NotificationsSentTotal.WithLabelValues(d.RoutingKey).Inc()
	c.Log.Info().Str("order_id", evt.AggregateID).Str("event_id", evt.ID).Str("rk", d.RoutingKey).Msg("customer notified")
}

var errUnhandled = errors.New("unhandled routing key")

func render(routingKey string, evt models.Event[json.RawMessage]) (notify.Message, error) {
	switch routingKey {
	case models.EventOrderCreated:
		var p models.OrderCreatedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return notify.Message{}, err
		}
		return notify.OrderConfirmation(evt.AggregateID, p)
	case models.EventOrderDelivered:
		var p models.OrderDeliveredPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return notify.Message{}, err
		}
		return notify.DeliveryNotice(evt.AggregateID, p)
	default:
		return notify.Message{}, errUnhandled
	}
}
