package generator

import (
	"context"
	"log/slog"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type ShiftWriter interface {
	// InsertShifts writes one batch in one transaction. Inserted shifts get their ID set;
	// shifts dropped by the unique index (a concurrent run got there first) keep ID 0.
	InsertShifts(ctx context.Context, shifts []*domain.Shift) error
	MarkTemplatesShiftCreated(ctx context.Context, templateIDs []int64) error
}

type WriteResult struct {
	Inserted   []*domain.Shift
	Conflicted []*domain.Shift
}

// BulkShiftWriter persists accepted shifts in bounded batches. A failing batch rolls back on
// its own; batches committed before it stay.
type BulkShiftWriter struct {
	store     ShiftWriter
	batchSize int
	logger    *slog.Logger
}

func NewBulkShiftWriter(store ShiftWriter, batchSize int, logger *slog.Logger) *BulkShiftWriter {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &BulkShiftWriter{
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *BulkShiftWriter) Write(ctx context.Context, shifts []*domain.Shift) (*WriteResult, error) {
	res := &WriteResult{
		Inserted:   make([]*domain.Shift, 0, len(shifts)),
		Conflicted: make([]*domain.Shift, 0),
	}

	for start := 0; start < len(shifts); start += w.batchSize {
		end := min(start+w.batchSize, len(shifts))
		batch := shifts[start:end]

		if err := w.store.InsertShifts(ctx, batch); err != nil {
			w.logger.Error("shift batch insert failed", "offset", start, "size", len(batch), "error", err)
			return res, &domain.PersistenceError{Op: "insert shift batch", Err: err}
		}

		for _, s := range batch {
			if s.ID == 0 {
				res.Conflicted = append(res.Conflicted, s)
				continue
			}
			res.Inserted = append(res.Inserted, s)
		}
		w.logger.Debug("shift batch committed", "offset", start, "size", len(batch))
	}

	return res, nil
}

func (w *BulkShiftWriter) MarkTemplates(ctx context.Context, templateIDs []int64) error {
	if len(templateIDs) == 0 {
		return nil
	}
	if err := w.store.MarkTemplatesShiftCreated(ctx, templateIDs); err != nil {
		return &domain.PersistenceError{Op: "update template status", Err: err}
	}
	return nil
}
