package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseDate reads a YYYY-MM-DD string as a date in the business timezone.
func (h *Handler) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout, s, h.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func (h *Handler) parseRange(from, to string) (time.Time, time.Time, error) {
	f, err := h.parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := h.parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return f, t, nil
}
