package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/okian/inningscast/internal/domain/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);
`

// SQLiteStore implements Store on a SQLite file. Every method borrows a
// pooled connection for the duration of the call.
type SQLiteStore struct {
	db    *sql.DB
	gauge *gaugeLoop
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Parent directories are created if needed.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &SQLiteStore{db: db, gauge: newGaugeLoop()}
	s.gauge.start(ctx, cfg.metricsUpdateInterval, s.Count)
	return s, nil
}

// Find implements Store.Find. The comparison is byte-exact.
func (s *SQLiteStore) Find(ctx context.Context, username string) (model.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?
	`
	var (
		u         model.User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("querying user: %w", err)
	}
	u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.User{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return u, nil
}

// Create implements Store.Create. Concurrent inserts of the same username are
// serialized by the UNIQUE constraint; the loser gets ErrConflict.
func (s *SQLiteStore) Create(ctx context.Context, username, passwordHash string) (model.User, error) {
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	const query = `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueConstraintError(err) {
			return model.User{}, ErrConflict
		}
		return model.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// Close stops the metrics loop and closes the pool.
func (s *SQLiteStore) Close() error {
	s.gauge.stop()
	return s.db.Close()
}

func isUniqueConstraintError(err error) bool {
	// SQLite reports "UNIQUE constraint failed: users.username"
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
