package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"

	app "github.com/kode4food/renewal"
	"github.com/kode4food/renewal/internal/archive"
	"github.com/kode4food/renewal/internal/config"
	"github.com/kode4food/renewal/internal/engine"
	"github.com/kode4food/renewal/internal/events"
	"github.com/kode4food/renewal/internal/genai"
	"github.com/kode4food/renewal/internal/renewal"
	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/internal/runlock"
	"github.com/kode4food/renewal/internal/server"
	"github.com/kode4food/renewal/internal/steps"
	"github.com/kode4food/renewal/internal/store"
	"github.com/kode4food/renewal/pkg/log"
)

type service struct {
	cfg        *config.Config
	store      *store.SQLiteStore
	redis      *redis.Client
	archive    *archive.BlobArchive
	hub        *events.Hub
	renewal    *renewal.Service
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrOpenStore   = errors.New("failed to open record store")
	ErrPingRedis   = errors.New("failed to reach redis")
	ErrOpenArchive = errors.New("failed to open run archive")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &service{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *service) run() error {
	ctx := context.Background()
	if err := s.initializeStores(ctx); err != nil {
		return err
	}
	defer s.closeStores()

	if err := s.initializeService(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *service) setupLogging() {
	level := log.ParseLevel(s.cfg.LogLevel)
	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Renewal service starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("sqlite_path", s.cfg.SQLitePath),
		slog.String("redis_addr", s.cfg.Redis.Addr),
		slog.Int("redis_db", s.cfg.Redis.DB),
		slog.String("model", s.cfg.Generation.Model),
		slog.Bool("archive_enabled", s.cfg.ArchiveBucketURL != ""),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *service) initializeStores(ctx context.Context) error {
	var err error

	if dir := filepath.Dir(s.cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrOpenStore, err)
		}
	}
	s.store, err = store.Open(ctx, s.cfg.SQLitePath,
		store.WithHistoryLimit(s.cfg.HistoryLimit),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenStore, err)
	}

	s.redis = redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.closeStores()
		return fmt.Errorf("%w: %w", ErrPingRedis, err)
	}

	if s.cfg.ArchiveBucketURL != "" {
		s.archive, err = archive.Open(
			ctx, s.cfg.ArchiveBucketURL, s.cfg.ArchivePrefix,
		)
		if err != nil {
			s.closeStores()
			return fmt.Errorf("%w: %w", ErrOpenArchive, err)
		}
	}
	return nil
}

func (s *service) initializeService() error {
	gen := genai.NewClient(s.cfg.Generation)
	search := retrieval.NewEngine(
		retrieval.NewCachedEmbedder(gen, s.cfg.EmbeddingCacheSize),
		retrieval.NewRedisIndex(s.redis, s.cfg.Redis.Prefix),
	)

	reg := steps.New(steps.Dependencies{
		Generator: gen,
		Searcher:  search,
		Recorder:  s.store,
	}).Registry()

	eng, err := engine.New(engine.Dependencies{Steps: reg})
	if err != nil {
		return err
	}

	s.hub = events.NewHub()
	deps := renewal.Dependencies{
		Store:  s.store,
		Runner: eng,
		Locker: runlock.New(s.redis, s.cfg.Redis.Prefix, s.cfg.RunLockTTL),
		Events: s.hub,
	}
	if s.archive != nil {
		deps.Archive = s.archive
	}
	s.renewal = renewal.NewService(deps)
	return nil
}

func (s *service) startServer() {
	deps := server.Dependencies{
		Service: s.renewal,
		Store:   s.store,
		Hub:     s.hub,
	}
	if s.archive != nil {
		deps.Transcripts = s.archive
	}
	s.apiServer = server.NewServer(deps)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: s.apiServer.SetupRoutes(),
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *service) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.renewal.Wait()
	s.hub.Close()

	slog.Info("Shutdown complete")
}

func (s *service) closeStores() {
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			slog.Error("Failed to close archive", log.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("Failed to close redis client", log.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Error("Failed to close record store", log.Error(err))
		}
	}
}
