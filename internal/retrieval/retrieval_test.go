package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/retrieval"
)

type (
	stubEmbedder struct {
		err     error
		queries int
		docs    int
	}

	stubIndex struct {
		matches   []retrieval.Match
		count     int
		requested int
		filter    retrieval.Metadata
		upserted  []retrieval.Document
		err       error
	}
)

func TestSearchWorkedExample(t *testing.T) {
	idx := &stubIndex{
		count: 3,
		matches: []retrieval.Match{
			{Text: "renewal benefits summary", Distance: 0.1},
			{Text: "premium too costly", Distance: 0.4},
			{Text: "premium discount", Distance: 0.4},
		},
	}
	eng := retrieval.NewEngine(&stubEmbedder{}, idx)

	res, err := eng.Search(context.Background(),
		retrieval.ObjectionLibrary, "premium too high", 5, 2, nil,
	)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "renewal benefits summary", res[0].Document)
	assert.Equal(t, "premium too costly", res[1].Document)
	assert.Equal(t, 3, idx.requested)
}

func TestRerankScores(t *testing.T) {
	query := "my premium is too high this year can not pay"
	matches := []retrieval.Match{
		{Text: "renewal benefits summary", Distance: 0.1},
		{Text: "premium is too high this", Distance: 0.4},
		{Text: "year pay", Distance: 0.4},
	}

	res := retrieval.Rerank(query, matches, 3)
	require.Len(t, res, 3)

	assert.Equal(t, "renewal benefits summary", res[0].Document)
	assert.InDelta(t, 0.9, res[0].SemanticScore, 1e-9)
	assert.InDelta(t, 0.0, res[0].KeywordScore, 1e-9)
	assert.InDelta(t, 0.63, res[0].FusedScore, 1e-9)

	assert.Equal(t, "premium is too high this", res[1].Document)
	assert.InDelta(t, 0.5, res[1].KeywordScore, 1e-9)
	assert.InDelta(t, 0.57, res[1].FusedScore, 1e-9)

	assert.Equal(t, "year pay", res[2].Document)
	assert.InDelta(t, 0.2, res[2].KeywordScore, 1e-9)
	assert.InDelta(t, 0.48, res[2].FusedScore, 1e-9)
}

func TestRerankOrdering(t *testing.T) {
	t.Run("same overlap, lower distance first", func(t *testing.T) {
		res := retrieval.Rerank("lapse", []retrieval.Match{
			{Text: "far lapse", Distance: 0.5},
			{Text: "near lapse", Distance: 0.2},
		}, 2)
		assert.Equal(t, "near lapse", res[0].Document)
	})

	t.Run("same distance, higher overlap first", func(t *testing.T) {
		res := retrieval.Rerank("grace period", []retrieval.Match{
			{Text: "grace", Distance: 0.3},
			{Text: "grace period rules", Distance: 0.3},
		}, 2)
		assert.Equal(t, "grace period rules", res[0].Document)
	})

	t.Run("ties keep index order", func(t *testing.T) {
		res := retrieval.Rerank("x", []retrieval.Match{
			{Text: "first", Distance: 0.3},
			{Text: "second", Distance: 0.3},
			{Text: "third", Distance: 0.3},
		}, 3)
		assert.Equal(t, "first", res[0].Document)
		assert.Equal(t, "second", res[1].Document)
		assert.Equal(t, "third", res[2].Document)
	})

	t.Run("case insensitive tokens", func(t *testing.T) {
		res := retrieval.Rerank("ULIP Fund", []retrieval.Match{
			{Text: "ulip fund value", Distance: 0.5},
		}, 1)
		assert.InDelta(t, 1.0, res[0].KeywordScore, 1e-9)
	})

	t.Run("empty query", func(t *testing.T) {
		res := retrieval.Rerank("", []retrieval.Match{
			{Text: "anything", Distance: 0.5},
		}, 1)
		assert.Equal(t, 0.0, res[0].KeywordScore)
	})
}

func TestSearchClampsToCount(t *testing.T) {
	idx := &stubIndex{count: 2}
	eng := retrieval.NewEngine(&stubEmbedder{}, idx)

	_, err := eng.Search(context.Background(), "c", "q", 5, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.requested)

	idx.count = 0
	_, err = eng.Search(context.Background(), "c", "q", 5, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.requested)
}

func TestSearchEmpty(t *testing.T) {
	eng := retrieval.NewEngine(&stubEmbedder{}, &stubIndex{})

	res, err := eng.Search(context.Background(), "c", "q", 5, 3, nil)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestSearchPassesFilter(t *testing.T) {
	idx := &stubIndex{count: 1}
	eng := retrieval.NewEngine(&stubEmbedder{}, idx)

	filter := retrieval.Metadata{"language": "Hindi"}
	_, err := eng.Search(context.Background(), "c", "q", 5, 3, filter)
	require.NoError(t, err)
	assert.Equal(t, filter, idx.filter)
}

func TestSearchErrors(t *testing.T) {
	boom := errors.New("boom")

	eng := retrieval.NewEngine(&stubEmbedder{err: boom}, &stubIndex{})
	_, err := eng.Search(context.Background(), "c", "q", 5, 3, nil)
	assert.ErrorIs(t, err, retrieval.ErrEmbedFailed)
	assert.ErrorIs(t, err, boom)

	eng = retrieval.NewEngine(&stubEmbedder{}, &stubIndex{err: boom})
	_, err = eng.Search(context.Background(), "c", "q", 5, 3, nil)
	assert.ErrorIs(t, err, retrieval.ErrIndexFailed)
}

func TestUpsert(t *testing.T) {
	idx := &stubIndex{}
	emb := &stubEmbedder{}
	eng := retrieval.NewEngine(emb, idx)

	err := eng.Upsert(context.Background(), "c",
		[]string{"doc one", "doc two"},
		[]retrieval.Metadata{{"type": "a"}, {"type": "b"}},
		[]string{"1", "2"},
	)
	require.NoError(t, err)
	require.Len(t, idx.upserted, 2)
	assert.Equal(t, "2", idx.upserted[1].ID)
	assert.Equal(t, "b", idx.upserted[1].Metadata["type"])
	assert.Equal(t, 2, emb.docs)

	err = eng.Upsert(context.Background(), "c",
		[]string{"doc"}, nil, []string{"1", "2"},
	)
	assert.ErrorIs(t, err, retrieval.ErrLengthMismatch)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "none", retrieval.Join(nil, "none"))
	assert.Equal(t, "a\nb", retrieval.Join([]retrieval.Result{
		{Document: "a"}, {Document: "b"},
	}, "none"))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, retrieval.CosineDistance(
		[]float64{1, 0}, []float64{2, 0},
	), 1e-9)
	assert.InDelta(t, 1.0, retrieval.CosineDistance(
		[]float64{1, 0}, []float64{0, 1},
	), 1e-9)
	assert.Equal(t, 1.0, retrieval.CosineDistance(nil, []float64{1}))
}

func (s *stubEmbedder) EmbedQuery(
	context.Context, string,
) ([]float64, error) {
	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	return []float64{1, 0}, nil
}

func (s *stubEmbedder) EmbedDocument(
	context.Context, string,
) ([]float64, error) {
	s.docs++
	if s.err != nil {
		return nil, s.err
	}
	return []float64{0, 1}, nil
}

func (s *stubIndex) Count(context.Context, string) (int, error) {
	return s.count, s.err
}

func (s *stubIndex) Query(
	_ context.Context, _ string, _ []float64, n int,
	filter retrieval.Metadata,
) ([]retrieval.Match, error) {
	s.requested = n
	s.filter = filter
	return s.matches, s.err
}

func (s *stubIndex) Upsert(
	_ context.Context, _ string, docs []retrieval.Document,
) error {
	s.upserted = append(s.upserted, docs...)
	return s.err
}
