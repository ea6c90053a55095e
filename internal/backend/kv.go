package backend

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Keys the local store persists under. The directory grant shares this
// table under the perm package's own fixed key.
const (
	kvKeyTasks    = "tasks"
	kvKeySettings = "settings"
	kvKeyLastID   = "last_id"
)

// KV is the embedded key-value store: a single sqlite table of JSON values.
// It is always available and doubles as the home for process-wide persisted
// state like the directory grant. Connections are opened per call so the
// store stays safe to share between processes.
type KV struct {
	Path string
}

func (k KV) open(ctx context.Context) (*sql.DB, error) {
	if dir := filepath.Dir(k.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", k.Path)
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness when CLI, TUI, and server overlap.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (k KV) Get(ctx context.Context, key string) (string, bool, error) {
	db, err := k.open(ctx)
	if err != nil {
		return "", false, err
	}
	defer db.Close()
	return kvGet(ctx, db, key)
}

func (k KV) Put(ctx context.Context, key, value string) error {
	db, err := k.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return kvPut(ctx, db, key, value)
}

func (k KV) Delete(ctx context.Context, key string) error {
	db, err := k.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
	return err
}

// querier lets the kv helpers run against a bare connection or a
// transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func kvGet(ctx context.Context, q querier, key string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func kvPut(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v) VALUES(?, ?)`, key, value)
	return err
}
