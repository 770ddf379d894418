package generator

import "github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"

// DuplicateIndex is the per-run set of shift keys: loaded once from the persisted shifts
// covering every candidate location and the whole date span, then grown in memory as
// candidates are accepted.
type DuplicateIndex struct {
	keys map[domain.DedupKey]struct{}
}

func NewDuplicateIndex(existing []domain.DedupKey) *DuplicateIndex {
	idx := &DuplicateIndex{
		keys: make(map[domain.DedupKey]struct{}, len(existing)),
	}
	for _, k := range existing {
		idx.keys[k] = struct{}{}
	}
	return idx
}

func (i *DuplicateIndex) Contains(k domain.DedupKey) bool {
	_, ok := i.keys[k]
	return ok
}

// Add reports false when the key was already present.
func (i *DuplicateIndex) Add(k domain.DedupKey) bool {
	if i.Contains(k) {
		return false
	}
	i.keys[k] = struct{}{}
	return true
}

func (i *DuplicateIndex) Len() int {
	return len(i.keys)
}
