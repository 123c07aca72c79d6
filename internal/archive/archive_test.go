package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/kode4food/renewal/internal/archive"
	"github.com/kode4food/renewal/internal/assert/helpers"
	"github.com/kode4food/renewal/pkg/api"
)

func newTranscript(runID string) *api.RunTranscript {
	st := helpers.NewTestState()
	st.CurrentNode = api.NodeCompleted
	return &api.RunTranscript{
		StartedAt:  helpers.FixedTime,
		FinishedAt: helpers.FixedTime.Add(time.Second),
		Final:      &st,
		RunID:      runID,
		PolicyID:   "POL-001",
		Updates: []*api.NodeUpdate{
			{
				Time:   helpers.FixedTime,
				RunID:  runID,
				Node:   api.NodeOrchestrate,
				Update: api.Update{}.Audit("[orchestrate] Selected channel"),
				Seq:    1,
			},
		},
	}
}

func TestBlobArchive(t *testing.T) {
	ctx := context.Background()

	a, err := archive.Open(ctx, "mem://", "runs/")
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	t.Run("Get returns not found for missing run", func(t *testing.T) {
		_, err := a.Get(ctx, "POL-001", "missing")
		assert.ErrorIs(t, err, archive.ErrTranscriptNotFound)
	})

	t.Run("Put and Get round-trip", func(t *testing.T) {
		require.NoError(t, a.Put(ctx, newTranscript("run-1")))

		got, err := a.Get(ctx, "POL-001", "run-1")
		require.NoError(t, err)
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, api.NodeCompleted, got.Final.CurrentNode)
		require.Len(t, got.Updates, 1)
		assert.Equal(t, api.NodeOrchestrate, got.Updates[0].Node)
		assert.True(t, got.StartedAt.Equal(helpers.FixedTime))
	})

	t.Run("Runs lists archived run ids", func(t *testing.T) {
		require.NoError(t, a.Put(ctx, newTranscript("run-2")))

		runs, err := a.Runs(ctx, "POL-001")
		require.NoError(t, err)
		assert.Equal(t, []string{"run-1", "run-2"}, runs)

		runs, err = a.Runs(ctx, "POL-999")
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("Delete removes transcript", func(t *testing.T) {
		require.NoError(t, a.Delete(ctx, "POL-001", "run-1"))
		_, err := a.Get(ctx, "POL-001", "run-1")
		assert.ErrorIs(t, err, archive.ErrTranscriptNotFound)
		assert.NoError(t, a.Delete(ctx, "POL-001", "run-1"))
	})

	t.Run("Put requires ids", func(t *testing.T) {
		err := a.Put(ctx, &api.RunTranscript{PolicyID: "POL-001"})
		assert.ErrorIs(t, err, archive.ErrInvalidTranscript)
	})
}

func TestKeyFormat(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	a := archive.New(bucket, "archived/")
	defer func() { _ = a.Close() }()

	require.NoError(t, a.Put(ctx, newTranscript("run-9")))

	exists, err := bucket.Exists(ctx, "archived/POL-001/run-9.json")
	require.NoError(t, err)
	assert.True(t, exists)

	attrs, err := bucket.Attributes(ctx, "archived/POL-001/run-9.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", attrs.ContentType)
}

func TestOpenInvalidURL(t *testing.T) {
	_, err := archive.Open(context.Background(), "bogus://bucket", "")
	assert.Error(t, err)
}

func TestCorruptTranscript(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	a := archive.New(bucket, "")
	defer func() { _ = a.Close() }()

	require.NoError(t, bucket.WriteAll(ctx, "POL-001/bad.json",
		[]byte("{not json"), nil))
	_, err := a.Get(ctx, "POL-001", "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, archive.ErrTranscriptNotFound)
}
