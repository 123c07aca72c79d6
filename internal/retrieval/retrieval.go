// Package retrieval implements hybrid vector and keyword search over named
// document collections
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/kode4food/renewal/pkg/log"
	"github.com/kode4food/renewal/pkg/util"
)

type (
	// Embedder maps text to a vector. Implementations apply their own
	// fallback model before reporting failure
	Embedder interface {
		EmbedQuery(ctx context.Context, text string) ([]float64, error)
		EmbedDocument(ctx context.Context, text string) ([]float64, error)
	}

	// Index is a vector similarity store of named collections
	Index interface {
		Count(ctx context.Context, collection string) (int, error)
		Query(
			ctx context.Context, collection string, embedding []float64,
			n int, filter Metadata,
		) ([]Match, error)
		Upsert(ctx context.Context, collection string, docs []Document) error
	}

	// Metadata is the flat attribute map attached to a document
	Metadata map[string]string

	// Document is a single entry of a collection
	Document struct {
		ID        string    `json:"id"`
		Text      string    `json:"document"`
		Metadata  Metadata  `json:"metadata,omitempty"`
		Embedding []float64 `json:"embedding"`
	}

	// Match is a document returned by the index with its vector distance
	Match struct {
		Text     string
		Metadata Metadata
		Distance float64
	}

	// Result is a reranked search hit
	Result struct {
		Document      string   `json:"document"`
		Metadata      Metadata `json:"metadata,omitempty"`
		SemanticScore float64  `json:"semantic_score"`
		KeywordScore  float64  `json:"keyword_score"`
		FusedScore    float64  `json:"fused_score"`
	}

	// Engine combines an Embedder and an Index into hybrid search
	Engine struct {
		embedder Embedder
		index    Index
	}
)

// Collections used by the workflow steps
const (
	ObjectionLibrary     = "objection_library"
	PolicyDocuments      = "policy_documents"
	RegulatoryGuidelines = "regulatory_guidelines"
)

const (
	SemanticWeight = 0.7
	KeywordWeight  = 0.3
)

var (
	ErrLengthMismatch = errors.New(
		"documents, metadatas and ids differ in length",
	)
	ErrEmbedFailed = errors.New("embedding failed")
	ErrIndexFailed = errors.New("vector index failed")
)

// Collections lists every collection the service populates
var Collections = []string{
	ObjectionLibrary, PolicyDocuments, RegulatoryGuidelines,
}

// NewEngine creates a search Engine
func NewEngine(embedder Embedder, index Index) *Engine {
	return &Engine{
		embedder: embedder,
		index:    index,
	}
}

// Search returns at most rerankTopK results from collection ordered by
// fused score. A collection with no matches yields an empty slice
func (e *Engine) Search(
	ctx context.Context, collection, query string, nResults, rerankTopK int,
	filter Metadata,
) ([]Result, error) {
	embedding, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedFailed, err)
	}

	count, err := e.index.Count(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}
	n := min(nResults, max(count, 1))

	matches, err := e.index.Query(ctx, collection, embedding, n, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}

	res := Rerank(query, matches, rerankTopK)
	slog.Debug("Hybrid search",
		log.Collection(collection),
		slog.Int("matches", len(matches)),
		slog.Int("results", len(res)))
	return res, nil
}

// Upsert embeds and stores documents in a collection. The three slices are
// parallel and must have equal length
func (e *Engine) Upsert(
	ctx context.Context, collection string, docs []string,
	metas []Metadata, ids []string,
) error {
	if len(docs) != len(ids) || (metas != nil && len(metas) != len(docs)) {
		return ErrLengthMismatch
	}

	entries := make([]Document, len(docs))
	for i, text := range docs {
		embedding, err := e.embedder.EmbedDocument(ctx, text)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEmbedFailed, ids[i], err)
		}
		entries[i] = Document{
			ID:        ids[i],
			Text:      text,
			Embedding: embedding,
		}
		if metas != nil {
			entries[i].Metadata = metas[i]
		}
	}

	if err := e.index.Upsert(ctx, collection, entries); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}
	return nil
}

// Rerank scores matches against query and returns the top k by fused
// score. Ties keep the index order
func Rerank(query string, matches []Match, k int) []Result {
	if len(matches) == 0 || k <= 0 {
		return []Result{}
	}

	queryTokens := Tokens(query)
	res := make([]Result, len(matches))
	for i, m := range matches {
		semantic := 1 - m.Distance
		keyword := KeywordScore(queryTokens, Tokens(m.Text))
		res[i] = Result{
			Document:      m.Text,
			Metadata:      m.Metadata,
			SemanticScore: semantic,
			KeywordScore:  keyword,
			FusedScore:    SemanticWeight*semantic + KeywordWeight*keyword,
		}
	}

	slices.SortStableFunc(res, func(a, b Result) int {
		switch {
		case a.FusedScore > b.FusedScore:
			return -1
		case a.FusedScore < b.FusedScore:
			return 1
		default:
			return 0
		}
	})
	return res[:min(k, len(res))]
}

// Tokens returns the lower-cased whitespace token set of text
func Tokens(text string) util.Set[string] {
	return util.SetOf(strings.Fields(strings.ToLower(text))...)
}

// KeywordScore is the fraction of query tokens present in doc
func KeywordScore(query, doc util.Set[string]) float64 {
	return float64(query.Intersect(doc)) / float64(max(query.Len(), 1))
}

// Join concatenates result documents one per line, or returns def when
// there are none
func Join(results []Result, def string) string {
	if len(results) == 0 {
		return def
	}
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Document
	}
	return strings.Join(docs, "\n")
}

// Matches reports whether meta carries every key/value pair of filter
func (m Metadata) Matches(filter Metadata) bool {
	for k, v := range filter {
		if m[k] != v {
			return false
		}
	}
	return true
}

// CosineDistance returns 1 minus the cosine similarity of a and b
func CosineDistance(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
