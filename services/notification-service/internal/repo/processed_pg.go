package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProcessedPG struct{ DB *pgxpool.Pool }

// TryMark returns true if the event was recorded now, false if it had
// already been processed.
func (r *ProcessedPG) TryMark(ctx context.Context, eventID, eventType, aggregateID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		insert into processed_events(event_id, event_type, aggregate_id)
		values ($1::uuid, $2, $3::uuid)
		on conflict do nothing
	`, eventID, eventType, aggregateID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Unmark lets a redelivery of eventID run again after a failed side effect.
func (r *ProcessedPG) Unmark(ctx context.Context, eventID string) error {
	_, err := r.DB.Exec(ctx, `delete from processed_events where event_id = $1::uuid`, eventID)
	return err
}
