package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func ValidateShiftTemplate(t *domain.ShiftTemplate) error {
	if t.LocationID <= 0 {
		return errors.New("template has no location")
	}

	startTime, err := time.Parse(domain.TimeLayout, t.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time %q", t.StartTime)
	}
	endTime, err := time.Parse(domain.TimeLayout, t.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end time %q", t.EndTime)
	}

	// a same-day shift must end after it starts; only cross-midnight shifts may wrap
	if !t.CrossesMidnight && !endTime.After(startTime) {
		return fmt.Errorf("end time %s is not after start time %s and the template does not cross midnight", t.EndTime, t.StartTime)
	}

	if t.MinGuards < 0 || t.OptimalGuards < 0 || t.MaxGuards < 0 {
		return errors.New("guard counts cannot be negative")
	}
	if t.MaxGuards > 0 && t.MinGuards > t.MaxGuards {
		return fmt.Errorf("minimum guards %d exceeds maximum %d", t.MinGuards, t.MaxGuards)
	}
	if t.OptimalGuards > 0 {
		if t.OptimalGuards < t.MinGuards {
			return fmt.Errorf("optimal guards %d is below minimum %d", t.OptimalGuards, t.MinGuards)
		}
		if t.MaxGuards > 0 && t.OptimalGuards > t.MaxGuards {
			return fmt.Errorf("optimal guards %d exceeds maximum %d", t.OptimalGuards, t.MaxGuards)
		}
	}

	if t.EffectiveTo != nil && t.EffectiveTo.Before(t.EffectiveFrom) {
		return errors.New("effective-to date is before effective-from date")
	}

	return nil
}

// ValidateGenerationRange checks a half-open [from, to) horizon.
func ValidateGenerationRange(from, to time.Time, maxDays int) error {
	if !to.After(from) {
		return fmt.Errorf("%w: 'to' must be after 'from'", domain.ErrInvalidDateRange)
	}
	if maxDays > 0 && len(domain.DaysBetween(from, to)) > maxDays {
		return fmt.Errorf("%w: horizon exceeds %d days", domain.ErrInvalidDateRange, maxDays)
	}
	return nil
}

// ValidateAssignmentRange checks an inclusive [from, to] range.
func ValidateAssignmentRange(from, to time.Time, maxDays int) error {
	if to.Before(from) {
		return fmt.Errorf("%w: 'to' is before 'from'", domain.ErrInvalidDateRange)
	}
	if maxDays > 0 && len(domain.DaysInclusive(from, to)) > maxDays {
		return fmt.Errorf("%w: range exceeds %d days", domain.ErrInvalidDateRange, maxDays)
	}
	return nil
}
