package holiday

import (
	"context"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type Source interface {
	// GetPublicHolidays returns the holidays dated within [from, to].
	GetPublicHolidays(ctx context.Context, from, to time.Time) ([]domain.HolidayInfo, error)
}

type Cache interface {
	// Lookup returns the cached answers. A nil entry means "cached, not a holiday"; dates absent
	// from the map were never cached.
	Lookup(ctx context.Context, dates []time.Time) (map[string]*domain.HolidayInfo, error)
	Store(ctx context.Context, dates []time.Time, holidays map[string]*domain.HolidayInfo) error
}

// Calendar answers holiday questions for a whole generation horizon with at most one source
// query. Failures degrade to "no holidays".
type Calendar struct {
	source  Source
	cache   Cache
	timeout time.Duration
	logger  *slog.Logger
}

func NewCalendar(source Source, cache Cache, timeout time.Duration, logger *slog.Logger) *Calendar {
	return &Calendar{
		source:  source,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Calendar) BatchCheck(ctx context.Context, dates []time.Time) map[string]*domain.HolidayInfo {
	out := make(map[string]*domain.HolidayInfo)
	if len(dates) == 0 {
		return out
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	missing := dates
	if c.cache != nil {
		cached, err := c.cache.Lookup(ctx, dates)
		if err != nil {
			c.logger.Warn("holiday cache lookup failed", "error", err)
		} else {
			missing = make([]time.Time, 0)
			for _, d := range dates {
				info, ok := cached[domain.DateKey(d)]
				if !ok {
					missing = append(missing, d)
					continue
				}
				if info != nil {
					out[domain.DateKey(d)] = info
				}
			}
		}
	}
	if len(missing) == 0 {
		return out
	}

	from, to := bounds(missing)
	holidays, err := c.source.GetPublicHolidays(ctx, from, to)
	if err != nil {
		c.logger.Warn("holiday lookup failed, assuming no holidays", "from", domain.DateKey(from), "to", domain.DateKey(to), "error", err)
		return out
	}

	fetched := make(map[string]*domain.HolidayInfo, len(holidays))
	for i := range holidays {
		h := holidays[i]
		fetched[domain.DateKey(h.Date)] = &h
	}
	for _, d := range missing {
		if h, ok := fetched[domain.DateKey(d)]; ok {
			out[domain.DateKey(d)] = h
		}
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, missing, fetched); err != nil {
			c.logger.Warn("holiday cache store failed", "error", err)
		}
	}

	return out
}

func bounds(dates []time.Time) (time.Time, time.Time) {
	from, to := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	return from, to
}
