package pattern

import (
	"fmt"
	"sort"
	"sync"
)

// Index is a registry of patterns by numeric id, the "Pattern Index"
// component spec.md §2 lists as the leaf consumer above Pattern. It is the
// only piece of this package a concurrent caller (e.g. a sequence/bank
// layer polling patterns from its own thread) may share across
// goroutines; Pattern itself is single-threaded from the edit side per
// spec.md §5.
type Index struct {
	mu       sync.RWMutex
	patterns map[int]*Pattern
}

// NewIndex returns an empty pattern index.
func NewIndex() *Index {
	return &Index{patterns: make(map[int]*Pattern)}
}

// Create allocates a new pattern at id, replacing any pattern already
// there. Returns the pattern for immediate editing.
func (idx *Index) Create(id, beats, stepsPerBeat int) (*Pattern, error) {
	p, err := New(beats, stepsPerBeat)
	if err != nil {
		return nil, err
	}
	idx.mu.Lock()
	idx.patterns[id] = p
	idx.mu.Unlock()
	return p, nil
}

// Get returns the pattern registered at id.
func (idx *Index) Get(id int) (*Pattern, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.patterns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadPatternID, id)
	}
	return p, nil
}

// Remove frees the pattern registered at id, if any.
func (idx *Index) Remove(id int) {
	idx.mu.Lock()
	delete(idx.patterns, id)
	idx.mu.Unlock()
}

// IDs returns the registered pattern ids in ascending order.
func (idx *Index) IDs() []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]int, 0, len(idx.patterns))
	for id := range idx.patterns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len reports how many patterns are currently registered.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.patterns)
}
