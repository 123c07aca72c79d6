package retrieval

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryIndex is an in-process Index keyed by collection and document id
type MemoryIndex struct {
	collections map[string]map[string]Document
	mu          sync.RWMutex
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty MemoryIndex
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		collections: map[string]map[string]Document{},
	}
}

func (m *MemoryIndex) Count(_ context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}

func (m *MemoryIndex) Query(
	_ context.Context, collection string, embedding []float64, n int,
	filter Metadata,
) ([]Match, error) {
	m.mu.RLock()
	docs := slices.Collect(maps.Values(m.collections[collection]))
	m.mu.RUnlock()
	return nearest(docs, embedding, n, filter), nil
}

func (m *MemoryIndex) Upsert(
	_ context.Context, collection string, docs []Document,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		coll = map[string]Document{}
		m.collections[collection] = coll
	}
	for _, d := range docs {
		coll[d.ID] = d
	}
	return nil
}

// nearest returns up to n documents passing filter, closest first. Equal
// distances are ordered by id so results are deterministic
func nearest(
	docs []Document, embedding []float64, n int, filter Metadata,
) []Match {
	type scored struct {
		doc  Document
		dist float64
	}

	var candidates []scored
	for _, d := range docs {
		if !d.Metadata.Matches(filter) {
			continue
		}
		candidates = append(candidates, scored{
			doc:  d,
			dist: CosineDistance(embedding, d.Embedding),
		})
	}

	slices.SortFunc(candidates, func(a, b scored) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return strings.Compare(a.doc.ID, b.doc.ID)
		}
	})

	limit := min(max(n, 0), len(candidates))
	res := make([]Match, 0, limit)
	for _, c := range candidates[:limit] {
		res = append(res, Match{
			Text:     c.doc.Text,
			Metadata: c.doc.Metadata,
			Distance: c.dist,
		})
	}
	return res
}
