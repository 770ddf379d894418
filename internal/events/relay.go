package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type OutboxStore interface {
	// GetPendingOutboxEvents returns unpublished events with fewer than maxAttempts attempts,
	// oldest first.
	GetPendingOutboxEvents(ctx context.Context, limit, maxAttempts int) ([]*domain.OutboxEvent, error)
	MarkOutboxEventPublished(ctx context.Context, evt *domain.OutboxEvent) error
	MarkOutboxEventFailed(ctx context.Context, evt *domain.OutboxEvent, cause error) error
}

type Publisher interface {
	Publish(ctx context.Context, evt *domain.OutboxEvent) error
}

type RelayOptions struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Relay moves committed outbox rows to the broker. Delivery is at least once: a row is marked
// published only after the broker accepted it.
type Relay struct {
	store     OutboxStore
	publisher Publisher
	opts      RelayOptions
	logger    *slog.Logger
}

func NewRelay(store OutboxStore, publisher Publisher, opts RelayOptions, logger *slog.Logger) *Relay {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "interval", r.opts.PollInterval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox relay pass failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events went out. A publish failure is
// recorded on the row and the pass moves on.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := r.store.GetPendingOutboxEvents(ctx, r.opts.BatchSize, r.opts.MaxAttempts)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, evt := range pending {
		if err := r.publisher.Publish(ctx, evt); err != nil {
			r.logger.Warn("failed to publish event", "eventID", evt.ID, "type", evt.EventType, "attempts", evt.Attempts+1, "error", err)
			if markErr := r.store.MarkOutboxEventFailed(ctx, evt, err); markErr != nil {
				return published, markErr
			}
			continue
		}
		if err := r.store.MarkOutboxEventPublished(ctx, evt); err != nil {
			return published, err
		}
		published++
	}

	if published > 0 {
		r.logger.Debug("outbox events published", "count", published)
	}
	return published, nil
}
