package repository

import (
	"context"
	"database/sql"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, evt *domain.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, aggregate_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, evt.ID, string(evt.EventType), evt.AggregateID, string(evt.Payload), evt.CreatedAt)
	return err
}

func (r *Repository) GetPendingOutboxEvents(ctx context.Context, limit, maxAttempts int) ([]*domain.OutboxEvent, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	p := newPredicates().
		add("published_at IS NULL").
		addIf(maxAttempts > 0, "attempts < ?", maxAttempts)

	query := `
		SELECT id, event_type, aggregate_id, payload, attempts, last_error, created_at
		FROM outbox_events
		` + p.where() + `
		ORDER BY created_at
		LIMIT ` + p.next(limit)

	rows, err := r.dbpool.QueryContext(ctx, query, p.arguments()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var (
			evt     domain.OutboxEvent
			payload string
		)
		dst := []any{
			&evt.ID,
			&evt.EventType,
			&evt.AggregateID,
			&payload,
			&evt.Attempts,
			&evt.LastError,
			&evt.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		evt.Payload = []byte(payload)
		events = append(events, &evt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *Repository) MarkOutboxEventPublished(ctx context.Context, evt *domain.OutboxEvent) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		UPDATE outbox_events
		SET published_at = NOW(), attempts = attempts + 1, last_error = ''
		WHERE id = $1
		RETURNING published_at
	`
	return r.dbpool.QueryRowContext(ctx, query, evt.ID).Scan(&evt.PublishedAt)
}

func (r *Repository) MarkOutboxEventFailed(ctx context.Context, evt *domain.OutboxEvent, cause error) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $1
		WHERE id = $2
		RETURNING attempts
	`
	return r.dbpool.QueryRowContext(ctx, query, cause.Error(), evt.ID).Scan(&evt.Attempts)
}
