package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"superfoods-store/shared/pkg/models"

	"github.com/jackc/pgx/v5"
)

// OutboxPG appends events to outbox_events inside the caller's transaction,
// so an event exists only if the change it describes was committed.
type OutboxPG struct{}

func (o *OutboxPG) Enqueue(ctx context.Context, tx pgx.Tx, evt models.Envelope) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.EventType(), err)
	}
	_, err = tx.Exec(ctx, `
		insert into outbox_events (id, aggregate_id, event_type, payload, next_attempt_at, created_at)
		values ($1::uuid, $2::uuid, $3, $4::jsonb, $5, $5)
	`, evt.EventID(), evt.Aggregate(), evt.EventType(), string(body), evt.OccurredAt())
	return err
}
