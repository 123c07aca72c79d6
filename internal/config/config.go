package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/renewal/internal/genai"
	"github.com/kode4food/renewal/internal/runlock"
	"github.com/kode4food/renewal/internal/store"
)

type (
	// Config holds configuration settings for the renewal service
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Record Store
		SQLitePath   string
		HistoryLimit int

		// Redis
		Redis RedisConfig

		// Generation
		Generation genai.Config

		// Retrieval
		EmbeddingCacheSize int

		// Archiving
		ArchiveBucketURL string
		ArchivePrefix    string

		// Runs
		RunLockTTL      time.Duration
		ShutdownTimeout time.Duration
	}

	// RedisConfig holds connection settings for the Redis server that
	// stores vector collections and run locks
	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
)

const (
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRunLockTTL      = runlock.DefaultTTL

	DefaultAPIPort = 8000
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultSQLitePath    = "./data/renewal.db"
	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "renewal:"
	DefaultRedisDB       = 0
	MaxRedisDB           = 15

	DefaultGenerationTimeout = 60 * time.Second
	DefaultGenerationRPS     = 5.0
	DefaultGenerationBurst   = 5
	DefaultEmbeddingCache    = 1024

	MaxHistoryLimit   = 1000
	MaxEmbeddingCache = 1_000_000
	MaxGenerationRPS  = 1000.0
	MaxBurst          = 1000
	MaxDuration       = 24 * time.Hour
)

var (
	ErrInvalidAPIPort      = errors.New("invalid API port")
	ErrMissingSQLitePath   = errors.New("sqlite path is required")
	ErrMissingRedisAddr    = errors.New("redis address is required")
	ErrInvalidHistoryLimit = errors.New("history limit must be positive")
	ErrInvalidTimeout      = errors.New("generation timeout must be positive")
	ErrInvalidRunLockTTL   = errors.New("run lock ttl must be positive")
	ErrInvalidRPS          = errors.New("generation rps cannot be negative")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// server, stores and generation client
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:      DefaultAPIHost,
		APIPort:      DefaultAPIPort,
		LogLevel:     "info",
		SQLitePath:   DefaultSQLitePath,
		HistoryLimit: store.DefaultHistoryLimit,
		Redis: RedisConfig{
			Addr:   DefaultRedisEndpoint,
			DB:     DefaultRedisDB,
			Prefix: DefaultRedisPrefix,
		},
		Generation: genai.Config{
			BaseURL:        genai.DefaultBaseURL,
			Model:          genai.DefaultModel,
			EmbeddingModel: genai.DefaultEmbeddingModel,
			FallbackModel:  genai.DefaultFallbackModel,
			Timeout:        DefaultGenerationTimeout,
			RPS:            DefaultGenerationRPS,
			Burst:          DefaultGenerationBurst,
		},
		EmbeddingCacheSize: DefaultEmbeddingCache,
		ArchivePrefix:      "runs/",
		RunLockTTL:         DefaultRunLockTTL,
		ShutdownTimeout:    DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("SQLITE_PATH", &c.SQLitePath)
	loadEnvString("REDIS_ADDR", &c.Redis.Addr)
	loadEnvString("REDIS_PASSWORD", &c.Redis.Password)
	loadEnvString("REDIS_PREFIX", &c.Redis.Prefix)
	loadEnvString("GEMINI_API_KEY", &c.Generation.APIKey)
	loadEnvString("GEMINI_BASE_URL", &c.Generation.BaseURL)
	loadEnvString("GEMINI_MODEL", &c.Generation.Model)
	loadEnvString("EMBEDDING_MODEL", &c.Generation.EmbeddingModel)
	loadEnvString("EMBEDDING_FALLBACK_MODEL", &c.Generation.FallbackModel)
	loadEnvString("ARCHIVE_BUCKET_URL", &c.ArchiveBucketURL)
	loadEnvString("ARCHIVE_PREFIX", &c.ArchivePrefix)

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.Redis.DB, -1, MaxRedisDB); err != nil {
		return err
	}
	if err := loadEnvInt(
		"HISTORY_LIMIT", &c.HistoryLimit, 0, MaxHistoryLimit,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"EMBEDDING_CACHE_SIZE", &c.EmbeddingCacheSize, 0, MaxEmbeddingCache,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"GENERATION_BURST", &c.Generation.Burst, 0, MaxBurst,
	); err != nil {
		return err
	}
	if err := loadEnvFloat(
		"GENERATION_RPS", &c.Generation.RPS, 0, MaxGenerationRPS,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"GENERATION_TIMEOUT", &c.Generation.Timeout,
	); err != nil {
		return err
	}
	if err := loadEnvDuration("RUN_LOCK_TTL", &c.RunLockTTL); err != nil {
		return err
	}
	return loadEnvDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.SQLitePath == "" {
		return ErrMissingSQLitePath
	}

	if c.Redis.Addr == "" {
		return ErrMissingRedisAddr
	}

	if c.HistoryLimit <= 0 {
		return ErrInvalidHistoryLimit
	}

	if c.Generation.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Generation.RPS < 0 {
		return ErrInvalidRPS
	}

	if c.RunLockTTL <= 0 {
		return ErrInvalidRunLockTTL
	}

	return nil
}

func loadEnvString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

// loadEnvFloat is loadEnvInt for floating point values, accepting the
// range (min, max]
func loadEnvFloat(key string, dst *float64, min, max float64) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= min || v > max {
		return fmt.Errorf("invalid %s: %g out of range (%g, %g]",
			key, v, min, max)
	}
	*dst = v
	return nil
}

// loadEnvDuration accepts Go duration strings ("90s", "2m") or a bare
// number of seconds
func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		secs, serr := strconv.ParseFloat(s, 64)
		if serr != nil {
			return fmt.Errorf("invalid %s: %q", key, s)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d <= 0 || d > MaxDuration {
		return fmt.Errorf("invalid %s: %s out of range (0s, %s]",
			key, d, MaxDuration)
	}
	*dst = d
	return nil
}
