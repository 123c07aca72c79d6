package retrieval_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/retrieval"
)

var fixtureDocs = []retrieval.Document{
	{
		ID:        "obj-1",
		Text:      "Premium feels too high",
		Metadata:  retrieval.Metadata{"language": "English"},
		Embedding: []float64{1, 0, 0},
	},
	{
		ID:        "obj-2",
		Text:      "प्रीमियम बहुत ज्यादा है",
		Metadata:  retrieval.Metadata{"language": "Hindi"},
		Embedding: []float64{0.9, 0.1, 0},
	},
	{
		ID:        "obj-3",
		Text:      "Will pay later",
		Metadata:  retrieval.Metadata{"language": "English"},
		Embedding: []float64{0, 1, 0},
	},
}

func TestMemoryIndex(t *testing.T) {
	testIndex(t, retrieval.NewMemoryIndex())
}

func TestRedisIndex(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{
		Addr:            server.Addr(),
		Protocol:        2,
		DisableIdentity: true,
	})
	defer func() { _ = client.Close() }()

	testIndex(t, retrieval.NewRedisIndex(client, "renewal:"))
	assert.True(t, server.Exists("renewal:collection:objection_library"))
}

func TestRedisIndexUnavailable(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{
		Addr:            server.Addr(),
		Protocol:        2,
		DisableIdentity: true,
	})
	defer func() { _ = client.Close() }()
	server.Close()

	idx := retrieval.NewRedisIndex(client, "renewal:")
	_, err = idx.Count(context.Background(), "c")
	assert.Error(t, err)
}

func testIndex(t *testing.T, idx retrieval.Index) {
	t.Helper()
	ctx := context.Background()
	coll := retrieval.ObjectionLibrary

	count, err := idx.Count(ctx, coll)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	matches, err := idx.Query(ctx, coll, []float64{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, idx.Upsert(ctx, coll, fixtureDocs))
	require.NoError(t, idx.Upsert(ctx, coll, fixtureDocs[:1]))

	count, err = idx.Count(ctx, coll)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	matches, err = idx.Query(ctx, coll, []float64{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Premium feels too high", matches[0].Text)
	assert.InDelta(t, 0.0, matches[0].Distance, 1e-9)
	assert.Equal(t, "प्रीमियम बहुत ज्यादा है", matches[1].Text)

	matches, err = idx.Query(ctx, coll, []float64{1, 0, 0}, 5,
		retrieval.Metadata{"language": "English"},
	)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Will pay later", matches[1].Text)
	assert.InDelta(t, 1.0, matches[1].Distance, 1e-9)
}

func TestSearchOverMemoryIndex(t *testing.T) {
	idx := retrieval.NewMemoryIndex()
	require.NoError(t,
		idx.Upsert(context.Background(), "c", fixtureDocs),
	)
	eng := retrieval.NewEngine(&stubEmbedder{}, idx)

	res, err := eng.Search(context.Background(), "c",
		"premium too high", 5, 1, nil,
	)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Premium feels too high", res[0].Document)
}
