package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/config"
	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/internal/store"
)

type upsertCall struct {
	collection string
	ids        []string
	metas      []retrieval.Metadata
}

type recordingWriter struct {
	calls []upsertCall
}

var seedTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func (w *recordingWriter) Upsert(
	_ context.Context, collection string, _ []string,
	metas []retrieval.Metadata, ids []string,
) error {
	w.calls = append(w.calls, upsertCall{
		collection: collection,
		ids:        ids,
		metas:      metas,
	})
	return nil
}

func TestDefaultDataset(t *testing.T) {
	d, err := parseDataset(defaultDataset)
	require.NoError(t, err)

	assert.NotEmpty(t, d.Customers)
	assert.Len(t, d.Policies, len(d.Customers))
	for _, name := range retrieval.Collections {
		assert.NotEmpty(t, d.Collections[name], name)
	}
	assert.NotNil(t, d.Policies[1].FundValue)
	assert.Nil(t, d.Policies[0].FundValue)
}

func TestParseDatasetErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{name: "empty", data: "  \n", err: ErrEmptyDataset},
		{
			name: "unknown customer",
			data: "policies:\n  - {id: P1, customer: C9}\n",
			err:  ErrUnknownCustomer,
		},
		{
			name: "unknown channel",
			data: "customers:\n  - {id: C1, channel: Fax}\n",
			err:  ErrUnknownChannel,
		},
		{
			name: "unknown policy",
			data: "interactions:\n  - {policy: P1, channel: Email}\n",
			err:  ErrUnknownPolicy,
		},
		{
			name: "unknown collection",
			data: "collections:\n  faq:\n    - {id: f1, text: hi}\n",
			err:  ErrUnknownCollection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDataset([]byte(tt.data))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := parseDataset([]byte("customers: [unterminated"))
	assert.Error(t, err)
}

func TestSeedRecordsIsRepeatable(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	d, err := parseDataset(defaultDataset)
	require.NoError(t, err)

	s := &seeder{store: st, now: func() time.Time { return seedTime }}
	require.NoError(t, s.seedRecords(ctx, d))
	require.NoError(t, s.seedRecords(ctx, d))

	policies, err := st.Policies(ctx)
	require.NoError(t, err)
	assert.Len(t, policies, len(d.Policies))

	snap, err := st.Snapshot(ctx, "SLI-2298741")
	require.NoError(t, err)
	assert.Equal(t, "Rajesh Sharma", snap.Customer.Name)
	assert.Len(t, snap.History, 2)
}

func TestSeedCollections(t *testing.T) {
	d, err := parseDataset(defaultDataset)
	require.NoError(t, err)

	w := &recordingWriter{}
	s := &seeder{index: w}
	require.NoError(t, s.seedCollections(context.Background(), d))

	require.Len(t, w.calls, len(retrieval.Collections))
	for i, name := range retrieval.Collections {
		assert.Equal(t, name, w.calls[i].collection)
		assert.Len(t, w.calls[i].ids, len(d.Collections[name]))
	}
	assert.Equal(t, "objection_library", w.calls[0].collection)
	assert.Equal(t, "financial_hardship", w.calls[0].metas[0]["category"])
}

func TestRunWithoutGenerationKey(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "data", "renewal.db")
	cfg.Generation.APIKey = ""

	require.NoError(t, run(context.Background(), cfg, nil))

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.SQLitePath)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	customers, err := st.Customers(ctx, "Senior Citizen")
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestRunMissingDataset(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "renewal.db")

	err := run(context.Background(), cfg, []string{"missing.yaml"})
	assert.ErrorContains(t, err, "read dataset")
}
