package outbox

import (
	"context"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"superfoods-store/services/outbox-worker/internal/metrics"
	"superfoods-store/shared/pkg/rabbit"
)

const errMaxAttempts = "max attempts reached"

type Runner struct {
	Log   zerolog.Logger
	Store Store
	Pub   rabbit.Sender

	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BackoffMax   time.Duration

	Now func() time.Time
}

func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("outbox runner stopped")
			return
		case <-t.C:
			if err := r.tick(ctx); err != nil {
				r.Log.Error().Err(err).Msg("outbox tick failed")
			}
		}
	}
}

func (r *Runner) tick(ctx context.Context) error {
	if n, err := r.Store.Pending(ctx); err == nil {
		metrics.OutboxPending.Set(float64(n))
	}
	_, err := r.Store.Claim(ctx, r.BatchSize, r.publish)
	return err
}

// publish sends one event. Rows past MaxAttempts are marked sent with an
// error so they stop blocking the batch.
func (r *Runner) publish(ctx context.Context, e Event) Mark {
	if e.Attempts >= r.MaxAttempts {
		metrics.OutboxDroppedTotal.Inc()
		r.Log.Warn().Str("id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts).Msg("outbox drop (max attempts), marked sent")
		return Mark{Sent: true, LastError: errMaxAttempts}
	}

	pubCtx, cancel := rabbit.WithTimeout(ctx)
	err := r.Pub.Publish(pubCtx, e.EventType, e.Payload, amqp.Table{
		rabbit.HeaderEventID:     e.ID,
		rabbit.HeaderAggregateID: e.AggregateID,
		rabbit.HeaderAttempts:    int32(0),
	})
	cancel()

	if err == nil {
		metrics.OutboxSentTotal.WithLabelValues(e.EventType).Inc()
		r.Log.Debug().Str("id", e.ID).Str("type", e.EventType).Str("aggregate_id", e.AggregateID).Msg("outbox event published")
		return Mark{Sent: true}
	}

	metrics.OutboxPublishErrorsTotal.Inc()
	next := r.now().Add(backoff(e.Attempts+1, r.BackoffMax))
	r.Log.Error().Err(err).Str("id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts+1).Time("next", next).Msg("publish failed -> retry scheduled")
	return Mark{Attempts: e.Attempts + 1, NextAttemptAt: next, LastError: err.Error()}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func backoff(attempt int, max time.Duration) time.Duration {
	sec := math.Pow(2, float64(attempt))
	d := time.Duration(sec) * time.Second
	if d > max {
		return max
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
