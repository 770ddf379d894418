package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

// racingWriter drops every other shift, as if a concurrent run had inserted it first.
type racingWriter struct {
	batches [][]*domain.Shift
	nextID  int64
	failOn  int
	marked  []int64
}

func (w *racingWriter) InsertShifts(_ context.Context, batch []*domain.Shift) error {
	w.batches = append(w.batches, batch)
	if w.failOn > 0 && len(w.batches) == w.failOn {
		return errors.New("deadlock detected")
	}
	for i, s := range batch {
		if i%2 == 1 {
			continue
		}
		w.nextID++
		s.ID = w.nextID
	}
	return nil
}

func (w *racingWriter) MarkTemplatesShiftCreated(_ context.Context, ids []int64) error {
	w.marked = append(w.marked, ids...)
	return nil
}

func shifts(n int) []*domain.Shift {
	out := make([]*domain.Shift, n)
	for i := range out {
		out[i] = &domain.Shift{LocationID: int64(i + 1)}
	}
	return out
}

func TestBulkShiftWriterChunksAndSortsOutConflicts(t *testing.T) {
	w := &racingWriter{}
	bw := NewBulkShiftWriter(w, 3, discardLogger())

	res, err := bw.Write(context.Background(), shifts(7))
	require.NoError(t, err)
	require.Len(t, w.batches, 3)
	assert.Len(t, w.batches[0], 3)
	assert.Len(t, w.batches[2], 1)

	// per batch of three, index 1 is dropped
	assert.Len(t, res.Inserted, 5)
	assert.Len(t, res.Conflicted, 2)
}

func TestBulkShiftWriterStopsAtFailingBatch(t *testing.T) {
	w := &racingWriter{failOn: 2}
	bw := NewBulkShiftWriter(w, 2, discardLogger())

	res, err := bw.Write(context.Background(), shifts(6))
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "insert shift batch", pe.Op)
	assert.Len(t, w.batches, 2)
	assert.Len(t, res.Inserted, 1)
}

func TestBulkShiftWriterMarkTemplates(t *testing.T) {
	w := &racingWriter{}
	bw := NewBulkShiftWriter(w, 0, discardLogger())

	require.NoError(t, bw.MarkTemplates(context.Background(), nil))
	assert.Empty(t, w.marked)

	require.NoError(t, bw.MarkTemplates(context.Background(), []int64{3, 4}))
	assert.Equal(t, []int64{3, 4}, w.marked)
}
