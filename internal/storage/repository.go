package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finhealth/internal/core"
	"finhealth/internal/persist"

	_ "modernc.org/sqlite"
)

// DefaultStateKey matches the key the browser build used for local storage.
const DefaultStateKey = "gemini_finance_state"

var _ persist.StateStore = (*SQLiteRepository)(nil)

// SQLiteRepository stores the whole AppState as one JSON row under a key.
type SQLiteRepository struct {
	db  *sql.DB
	key string
}

func NewSQLiteRepository(dbPath, key string) (*SQLiteRepository, error) {
	if key == "" {
		key = DefaultStateKey
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; snapshots are small.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, key: key}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements persist.StateLoader
func (r *SQLiteRepository) Load(ctx context.Context) (core.AppState, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM app_state WHERE key = ?`, r.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AppState{}, false, nil
	}
	if err != nil {
		return core.AppState{}, false, fmt.Errorf("select snapshot: %w", err)
	}

	var st core.AppState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return core.AppState{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, true, nil
}

// Save implements persist.StateSaver
func (r *SQLiteRepository) Save(ctx context.Context, st core.AppState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO app_state (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		r.key, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"key", r.key,
		"bytes", len(payload),
		"expenses", len(st.Expenses),
		"health_points", st.HealthPoints)

	return nil
}

// UpdatedAt returns when the snapshot was last written.
func (r *SQLiteRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT updated_at FROM app_state WHERE key = ?`, r.key).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("select updated_at: %w", err)
	}
	return ts, nil
}

// Delete removes the snapshot so the next Load behaves like a first run.
func (r *SQLiteRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, r.key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
