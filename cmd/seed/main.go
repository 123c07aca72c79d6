package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	app "github.com/kode4food/renewal"
	"github.com/kode4food/renewal/internal/config"
	"github.com/kode4food/renewal/internal/genai"
	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/internal/store"
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/log"
)

type (
	recordStore interface {
		UpsertCustomer(ctx context.Context, c *api.Customer) error
		UpsertPolicy(ctx context.Context, p *api.Policy) error
		AppendInteraction(
			ctx context.Context, policyID string, in api.Interaction,
		) error
		Snapshot(ctx context.Context, policyID string) (*api.PolicySnapshot, error)
	}

	collectionWriter interface {
		Upsert(
			ctx context.Context, collection string, docs []string,
			metas []retrieval.Metadata, ids []string,
		) error
	}

	seeder struct {
		store recordStore
		index collectionWriter
		now   func() time.Time
	}
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	level := log.ParseLevel(cfg.LogLevel)
	logger := log.NewWithLevel(app.Name, os.Getenv("ENV"), app.Version, level)
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, os.Args[1:]); err != nil {
		slog.Error("Seeding failed", log.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	raw := defaultDataset
	if len(args) > 0 {
		var err error
		if raw, err = os.ReadFile(args[0]); err != nil {
			return fmt.Errorf("read dataset: %w", err)
		}
	}
	data, err := parseDataset(raw)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	st, err := store.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	s := &seeder{store: st, now: time.Now}
	if err := s.seedRecords(ctx, data); err != nil {
		return err
	}

	if cfg.Generation.APIKey == "" {
		slog.Warn("No generation API key, skipping retrieval collections")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = client.Close() }()

	s.index = retrieval.NewEngine(
		genai.NewClient(cfg.Generation),
		retrieval.NewRedisIndex(client, cfg.Redis.Prefix),
	)
	return s.seedCollections(ctx, data)
}

func (s *seeder) seedRecords(ctx context.Context, d *dataset) error {
	for _, c := range d.Customers {
		if err := s.store.UpsertCustomer(ctx, c.record()); err != nil {
			return err
		}
	}
	for _, p := range d.Policies {
		if err := s.store.UpsertPolicy(ctx, p.record()); err != nil {
			return err
		}
	}

	seeded := map[string]bool{}
	for _, in := range d.Interactions {
		fresh, ok := seeded[in.Policy]
		if !ok {
			snap, err := s.store.Snapshot(ctx, in.Policy)
			if err != nil {
				return err
			}
			fresh = len(snap.History) == 0
			seeded[in.Policy] = fresh
		}
		if !fresh {
			continue
		}
		err := s.store.AppendInteraction(ctx, in.Policy, api.Interaction{
			CreatedAt: s.now(),
			Channel:   in.Channel,
			Direction: in.Direction,
			Content:   in.Content,
			Sentiment: in.Sentiment,
		})
		if err != nil {
			return err
		}
	}

	slog.Info("Records seeded",
		slog.Int("customers", len(d.Customers)),
		slog.Int("policies", len(d.Policies)),
		slog.Int("interactions", len(d.Interactions)))
	return nil
}

func (s *seeder) seedCollections(ctx context.Context, d *dataset) error {
	for _, name := range retrieval.Collections {
		items := d.Collections[name]
		if len(items) == 0 {
			continue
		}

		docs := make([]string, len(items))
		metas := make([]retrieval.Metadata, len(items))
		ids := make([]string, len(items))
		for i, item := range items {
			docs[i] = item.Text
			metas[i] = item.Metadata
			ids[i] = item.ID
		}

		if err := s.index.Upsert(ctx, name, docs, metas, ids); err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
		slog.Info("Collection seeded",
			log.Collection(name),
			slog.Int("documents", len(items)))
	}
	return nil
}
