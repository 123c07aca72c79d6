// Package store persists customers, policies, workflow status and the
// audit trail in SQLite
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the record store backed by a SQLite database
type SQLiteStore struct {
	db           *sql.DB
	now          func() time.Time
	historyLimit int
}

// Option configures a SQLiteStore
type Option func(*SQLiteStore)

const (
	// DefaultHistoryLimit is the number of interactions loaded into a run
	DefaultHistoryLimit = 20

	// StatusInteractions is the number of interactions in a status report
	StatusInteractions = 5

	timeLayout = "2006-01-02 15:04:05.000000"
	driverName = "sqlite"
)

var (
	ErrPolicyNotFound = errors.New("policy not found")
	ErrCaseNotFound   = errors.New("escalation case not found")
)

// Open connects to the database at path and applies the schema
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := New(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle without touching its schema
func New(db *sql.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		db:           db,
		now:          time.Now,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithClock sets the clock used for updated_at columns
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// WithHistoryLimit sets how many interactions a snapshot carries
func WithHistoryLimit(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// Migrate creates any missing tables and indexes
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping checks that the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) timestamp() string {
	return formatTime(s.now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{
		timeLayout, time.DateTime, time.RFC3339Nano, time.DateOnly,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) stamp(t time.Time) string {
	if t.IsZero() {
		return s.timestamp()
	}
	return formatTime(t)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
