package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/utils"
)

type Store interface {
	ShiftWriter
	// GetActiveTemplates returns active templates of the contract. An empty id list means all of them.
	GetActiveTemplates(ctx context.Context, contractID int64, templateIDs []int64) ([]*domain.ShiftTemplate, error)
	// GetShiftKeys returns the dedup keys of non-cancelled shifts at the locations within [from, to).
	GetShiftKeys(ctx context.Context, locationIDs []int64, from, to time.Time) ([]domain.DedupKey, error)
}

type HolidayOracle interface {
	// BatchCheck never fails: a lookup failure yields an empty map.
	BatchCheck(ctx context.Context, dates []time.Time) map[string]*domain.HolidayInfo
}

// PostGenerationHook runs after the shifts are committed. Its failures never undo generation.
type PostGenerationHook interface {
	AfterGeneration(ctx context.Context, shifts []*domain.Shift, templates map[int64]*domain.ShiftTemplate) []domain.AutoAssignOutcome
}

type Options struct {
	Location          *time.Location
	BatchSize         int
	MaxHorizonDays    int
	OvertimeThreshold time.Duration
}

type Request struct {
	ContractID  int64
	TemplateIDs []int64
	From        time.Time
	To          time.Time
}

type Generator struct {
	store    Store
	holidays HolidayOracle
	hook     PostGenerationHook
	expander *Expander
	writer   *BulkShiftWriter
	opts     Options
	logger   *slog.Logger
}

func New(store Store, holidays HolidayOracle, opts Options, logger *slog.Logger) *Generator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Generator{
		store:    store,
		holidays: holidays,
		expander: NewExpander(opts.OvertimeThreshold, logger),
		writer:   NewBulkShiftWriter(store, opts.BatchSize, logger),
		opts:     opts,
		logger:   logger,
	}
}

// SetHook installs the auto-assignment step. The assignment package depends on this one, so
// the hook is attached after both are built.
func (g *Generator) SetHook(hook PostGenerationHook) {
	g.hook = hook
}

// Generate expands the contract's templates over [From, To) and persists the new shifts. On a
// persistence failure the partial result is returned together with the error.
func (g *Generator) Generate(ctx context.Context, req Request) (*domain.GenerationResult, error) {
	from := domain.DateIn(req.From, g.opts.Location)
	to := domain.DateIn(req.To, g.opts.Location)
	if err := utils.ValidateGenerationRange(from, to, g.opts.MaxHorizonDays); err != nil {
		return nil, domain.NewStructuralError(domain.ErrInvalidDateRange, "%v", err)
	}

	templates, err := g.store.GetActiveTemplates(ctx, req.ContractID, req.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, domain.NewStructuralError(domain.ErrNoActiveTemplates, "contract %d", req.ContractID)
	}
	for _, t := range templates {
		if t.ContractID == nil || *t.ContractID != req.ContractID {
			return nil, domain.NewStructuralError(domain.ErrMixedContracts, "template %d", t.ID)
		}
	}

	result := &domain.GenerationResult{
		SkipReasons:     make([]domain.SkipReason, 0),
		CreatedShiftIDs: make([]int64, 0),
		Errors:          make([]string, 0),
		GeneratedFrom:   from,
		GeneratedTo:     to,
	}

	// one lookup for the whole horizon
	holidays := g.holidays.BatchCheck(ctx, domain.DaysBetween(from, to))

	keys, err := g.store.GetShiftKeys(ctx, locationIDs(templates), from, to)
	if err != nil {
		return nil, fmt.Errorf("load existing shifts: %w", err)
	}
	index := NewDuplicateIndex(keys)

	expansion := g.expander.Expand(templates, from, to, holidays, index)
	result.SkipReasons = append(result.SkipReasons, expansion.Skipped...)
	for _, e := range expansion.Errors {
		result.Errors = append(result.Errors, e.Error())
	}

	written, writeErr := g.writer.Write(ctx, expansion.Accepted)
	for _, s := range written.Inserted {
		result.CreatedShiftIDs = append(result.CreatedShiftIDs, s.ID)
	}
	for _, s := range written.Conflicted {
		result.SkipReasons = append(result.SkipReasons, domain.SkipReason{
			Date:       s.ShiftDate,
			LocationID: s.LocationID,
			TemplateID: derefID(s.TemplateID),
			Reason:     SkipReasonAlreadyExists,
		})
	}
	result.CreatedCount = len(written.Inserted)
	result.SkippedCount = len(result.SkipReasons)

	if writeErr != nil {
		result.Errors = append(result.Errors, writeErr.Error())
		return result, writeErr
	}

	if err := g.writer.MarkTemplates(ctx, expansion.Processed); err != nil {
		g.logger.Error("failed to update template status", "contractID", req.ContractID, "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	g.logger.Info("shift generation finished",
		"contractID", req.ContractID,
		"from", domain.DateKey(from),
		"to", domain.DateKey(to),
		"created", result.CreatedCount,
		"skipped", result.SkippedCount,
		"errors", len(result.Errors),
	)

	if g.hook != nil && len(written.Inserted) > 0 {
		byID := make(map[int64]*domain.ShiftTemplate, len(templates))
		for _, t := range templates {
			byID[t.ID] = t
		}
		result.AutoAssignments = g.hook.AfterGeneration(ctx, written.Inserted, byID)
	}

	return result, nil
}

func locationIDs(templates []*domain.ShiftTemplate) []int64 {
	seen := make(map[int64]struct{}, len(templates))
	ids := make([]int64, 0, len(templates))
	for _, t := range templates {
		if _, ok := seen[t.LocationID]; ok {
			continue
		}
		seen[t.LocationID] = struct{}{}
		ids = append(ids, t.LocationID)
	}
	return ids
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// IsPersistenceFailure reports whether err came from a failed write.
func IsPersistenceFailure(err error) bool {
	var pe *domain.PersistenceError
	return errors.As(err, &pe)
}
