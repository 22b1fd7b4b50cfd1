package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/market/offers"
	"fleamarket.gg/internal/market/traders"
	"fleamarket.gg/internal/market/tuning"
	"fleamarket.gg/internal/persistence/snapshot"
)

// SQLiteIndex is a queryable read model of market events. Writes go through
// a buffered channel to a single writer goroutine; the JSONL audit log stays
// the source of truth when the queue overflows.
type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAudit    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqAudit reqKind = iota + 1
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	audit    offers.AuditEntry
	snapshot snapshotRow
	done     chan struct{}
}

type snapshotRow struct {
	CreatedAt int64
	Path      string
	Offers    int
	Profiles  int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// A sweep can settle many offers at once.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			time INTEGER NOT NULL,
			event TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			offer_id TEXT NOT NULL,
			tpl TEXT NOT NULL,
			amount INTEGER NOT NULL,
			roubles REAL NOT NULL,
			fee REAL NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_time ON events(event, time);`,
		`CREATE INDEX IF NOT EXISTS idx_events_tpl_time ON events(tpl, time);`,
		`CREATE INDEX IF NOT EXISTS idx_events_profile_time ON events(profile_id, time);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			created_at INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			offers INTEGER NOT NULL,
			profiles INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Record queues an offer lifecycle event; it implements offers.Auditor.
func (s *SQLiteIndex) Record(e offers.AuditEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: e}:
	default:
		s.dropAudit.Add(1)
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		CreatedAt: snap.Header.CreatedAt,
		Path:      path,
		Offers:    len(snap.Offers),
		Profiles:  len(snap.Profiles),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// Flush blocks until everything queued so far is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropAuditTotal    uint64 `json:"drop_audit_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropAuditTotal:    s.dropAudit.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// UpsertCatalogs stores the reference data and tuning the server runs with,
// so recorded events can be matched to the prices that produced them.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, reg *traders.Registry, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	read := func(name, file, digest string) {
		if configDir == "" || digest == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	read("items", filepath.Join("catalogs", "items.json"), cats.Items.Digest)
	read("handbook", filepath.Join("catalogs", "handbook.json"), cats.Handbook.Digest)
	read("prices", filepath.Join("catalogs", "prices.json"), cats.Prices.Digest)
	if reg != nil {
		read("traders", "traders.json", reg.Digest)
	}
	if b, err := json.Marshal(tune); err == nil {
		rows = append(rows, kv{name: "tuning", digest: tune.Digest(), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertEvent, _ := s.db.Prepare(`INSERT INTO events(time,event,profile_id,offer_id,tpl,amount,roubles,fee,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(created_at,path,offers,profiles) VALUES(?,?,?,?)`)
	defer func() {
		if insertEvent != nil {
			_ = insertEvent.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAudit:
			a := r.audit
			raw, _ := json.Marshal(a)
			if insertEvent != nil {
				if _, err := tx.Stmt(insertEvent).Exec(
					a.Time,
					a.Event,
					a.ProfileID,
					a.OfferID,
					a.Tpl,
					a.Amount,
					a.Roubles,
					a.Fee,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(sn.CreatedAt, sn.Path, sn.Offers, sn.Profiles); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
