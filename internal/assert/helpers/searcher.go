package helpers

import (
	"context"
	"sync"

	"github.com/kode4food/renewal/internal/retrieval"
)

type (
	// MockSearcher returns canned documents per collection
	MockSearcher struct {
		docs    map[string][]string
		errors  map[string]error
		queries []SearchQuery
		mu      sync.Mutex
	}

	// SearchQuery is one recorded search request
	SearchQuery struct {
		Collection string
		Query      string
		NResults   int
		TopK       int
	}
)

// NewMockSearcher creates a searcher whose collections are all empty
func NewMockSearcher() *MockSearcher {
	return &MockSearcher{
		docs:   map[string][]string{},
		errors: map[string]error{},
	}
}

// Search records the request and returns the collection's documents
func (s *MockSearcher) Search(
	_ context.Context, collection, query string, n, k int,
	_ retrieval.Metadata,
) ([]retrieval.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, SearchQuery{
		Collection: collection,
		Query:      query,
		NResults:   n,
		TopK:       k,
	})
	if err := s.errors[collection]; err != nil {
		return nil, err
	}
	docs := s.docs[collection]
	res := make([]retrieval.Result, 0, min(len(docs), k))
	for _, d := range docs[:min(len(docs), k)] {
		res = append(res, retrieval.Result{Document: d, FusedScore: 1})
	}
	return res, nil
}

// SetDocuments configures the documents of a collection
func (s *MockSearcher) SetDocuments(collection string, docs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collection] = docs
}

// SetError makes searches of a collection fail
func (s *MockSearcher) SetError(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[collection] = err
}

// Queries returns the recorded search requests
func (s *MockSearcher) Queries() []SearchQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SearchQuery(nil), s.queries...)
}
