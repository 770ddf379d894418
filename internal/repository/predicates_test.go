package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicatesNumbering(t *testing.T) {
	p := newPredicates(int64(1)).
		add("contract_id = ?", int64(9)).
		addIf(false, "team_id = ?", int64(3)).
		add("shift_date BETWEEN ? AND ?", "2025-01-01", "2025-01-07")

	assert.Equal(t, "WHERE contract_id = $2 AND shift_date BETWEEN $3 AND $4", p.where())
	assert.Equal(t, []any{int64(1), int64(9), "2025-01-01", "2025-01-07"}, p.arguments())

	assert.Equal(t, "$5", p.next(50))
	assert.Len(t, p.arguments(), 5)
}

func TestPredicatesEmpty(t *testing.T) {
	p := newPredicates()
	assert.Empty(t, p.where())
	assert.Empty(t, p.arguments())
	assert.Equal(t, "$1", p.next(10))
}

func TestPredicatesPlaceholderMismatch(t *testing.T) {
	assert.Panics(t, func() {
		newPredicates().add("a = ? AND b = ?", 1)
	})
}
