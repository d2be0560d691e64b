package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	Attempts    int
}

// Mark is what happens to a claimed row once the runner is done with it.
type Mark struct {
	Sent          bool
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
}

type Store interface {
	// Claim locks up to limit due rows, hands each to fn and writes the
	// returned marks in the same transaction.
	Claim(ctx context.Context, limit int, fn func(ctx context.Context, e Event) Mark) (int, error)
	Pending(ctx context.Context) (int, error)
}

type PG struct {
	DB *pgxpool.Pool
}

func (s *PG) Claim(ctx context.Context, limit int, fn func(ctx context.Context, e Event) Mark) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		select id, aggregate_id, event_type, payload::text, attempts
		from outbox_events
		where sent_at is null and next_attempt_at <= now()
		order by created_at
		limit $1
		for update skip locked
	`, limit)
	if err != nil {
		return 0, err
	}

	var batch []Event
	for rows.Next() {
		var e Event
		var payload string
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.Attempts); err != nil {
			rows.Close()
			return 0, err
		}
		e.Payload = []byte(payload)
		batch = append(batch, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, e := range batch {
		m := fn(ctx, e)
		if m.Sent {
			_, err = tx.Exec(ctx, `
				update outbox_events set sent_at = now(), last_error = nullif($2, '')
				where id = $1
			`, e.ID, m.LastError)
		} else {
			_, err = tx.Exec(ctx, `
				update outbox_events
				set attempts = $2, next_attempt_at = $3, last_error = $4
				where id = $1
			`, e.ID, m.Attempts, m.NextAttemptAt, m.LastError)
		}
		if err != nil {
			return 0, err
		}
	}
	return len(batch), tx.Commit(ctx)
}

func (s *PG) Pending(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var n int
	err := s.DB.QueryRow(ctx, `select count(*) from outbox_events where sent_at is null`).Scan(&n)
	return n, err
}
