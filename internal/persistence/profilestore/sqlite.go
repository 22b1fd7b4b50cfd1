package profilestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) a profile database at path.
func OpenSQLite(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty profile db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open profile db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	b := &sqliteBackend{conn: conn}
	if err := b.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return newStore(b), nil
}

type sqliteBackend struct {
	conn *sqlx.DB
}

func (b *sqliteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		level INTEGER NOT NULL,
		json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_level ON profiles(level);
	`
	_, err := b.conn.Exec(schema)
	return err
}

func (b *sqliteBackend) load(ctx context.Context, id string) ([]byte, bool, error) {
	var raw string
	err := b.conn.GetContext(ctx, &raw, `SELECT json FROM profiles WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (b *sqliteBackend) save(ctx context.Context, id string, level int, raw []byte) error {
	_, err := b.conn.ExecContext(ctx,
		`INSERT INTO profiles(id, level, json, updated_at) VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET level=excluded.level, json=excluded.json, updated_at=excluded.updated_at`,
		id, level, string(raw), time.Now().Unix())
	return err
}

func (b *sqliteBackend) ids(ctx context.Context) ([]string, error) {
	var out []string
	err := b.conn.SelectContext(ctx, &out, `SELECT id FROM profiles ORDER BY id`)
	return out, err
}

func (b *sqliteBackend) close() error { return b.conn.Close() }
