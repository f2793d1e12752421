// Package store is the persistent relational store backing station
// programming: media, stations, station_media, plays, station_state, and
// station_overlays. It is the only package that mutates StationState and
// appends to the play history; every write path is a short implicit
// transaction committed before returning.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// Store wraps a shared *sql.DB handle. Concurrent readers are permitted;
// writers are serialized by sqlite itself under WAL + busy_timeout.
type Store struct {
	db *sql.DB
}

// Config mirrors connection-pool tuning knobs (busy timeout, max open
// conns, WAL mode) common to modernc.org/sqlite-backed services.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns sane pool settings for a single-process daemon.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// Open opens (creating if necessary) the sqlite database at path, applies
// the mandatory PRAGMAs, and runs migrations.
func Open(path string, cfg Config) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		path, cfg.BusyTimeout.Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %q: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate %q: %w", path, err)
	}
	return s, nil
}

// OpenMemory opens an in-memory store for tests; each call gets an isolated
// database (a named shared-cache DSN would share state across handles, which
// tests never want).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("store: open memory db: %w", err)
	}
	db.SetMaxOpenConns(1) // a private :memory: db only exists on one connection
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate memory db: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for the scan utility, which does bulk upserts
// outside the typed accessor surface.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return s.migrateLegacy()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const schema = `
	CREATE TABLE IF NOT EXISTS media (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		path       TEXT NOT NULL UNIQUE,
		kind       TEXT NOT NULL,
		artist     TEXT,
		title      TEXT,
		tag        TEXT,
		duration_s REAL NOT NULL DEFAULT 0,
		mtime      REAL
	);
	CREATE INDEX IF NOT EXISTS idx_media_kind_tag ON media(kind, tag);

	CREATE TABLE IF NOT EXISTS stations (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		name              TEXT NOT NULL UNIQUE,
		freq              REAL NOT NULL,
		idents_dir        TEXT NOT NULL DEFAULT '',
		commercials_dir   TEXT NOT NULL DEFAULT '',
		break_frequency_s REAL NOT NULL DEFAULT 0,
		break_length_s    REAL NOT NULL DEFAULT 0,
		ident_frequency_s REAL NOT NULL DEFAULT 0,
		overlay_pad_s     REAL NOT NULL DEFAULT 0,
		overlay_duck      REAL NOT NULL DEFAULT 1,
		overlay_ramp_s    REAL NOT NULL DEFAULT 0,
		top_of_the_hour   TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS station_media (
		station_id     INTEGER NOT NULL,
		media_id       INTEGER NOT NULL,
		last_played_ts REAL,
		PRIMARY KEY (station_id, media_id)
	);

	CREATE TABLE IF NOT EXISTS plays (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id INTEGER NOT NULL,
		media_id   INTEGER NOT NULL,
		kind       TEXT NOT NULL,
		started_ts REAL NOT NULL,
		ended_ts   REAL
	);
	CREATE INDEX IF NOT EXISTS idx_plays_station ON plays(station_id, started_ts);

	CREATE TABLE IF NOT EXISTS station_state (
		station_id        INTEGER PRIMARY KEY,
		current_media_id  INTEGER,
		kind              TEXT,
		started_ts        REAL,
		ends_ts           REAL,
		queue_json        TEXT,
		queue_index       INTEGER NOT NULL DEFAULT 0,
		pending_break     INTEGER NOT NULL DEFAULT 0,
		last_break_ts     REAL NOT NULL DEFAULT 0,
		force_ident_next  INTEGER NOT NULL DEFAULT 0,
		last_ident_ts     REAL NOT NULL DEFAULT 0,
		last_toth_slot_ts REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS station_overlays (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id           INTEGER NOT NULL,
		schedule_key         TEXT NOT NULL,
		overlays_dir         TEXT NOT NULL DEFAULT '',
		overlays_probability REAL NOT NULL DEFAULT 0,
		UNIQUE(station_id, schedule_key)
	);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	return s.migrateLegacy()
}

// migrateLegacy renames tables and columns that may exist under older
// names from a prior revision of this schema. It is idempotent and safe
// to run on every startup.
func (s *Store) migrateLegacy() error {
	if err := s.renameLegacyOverlaysTable(); err != nil {
		return err
	}
	if err := s.renameLegacyColumns("stations", map[string]string{
		"ident_pad_s":  "overlay_pad_s",
		"ident_duck":   "overlay_duck",
		"ident_ramp_s": "overlay_ramp_s",
	}); err != nil {
		return err
	}
	if _, err := s.db.Exec(`UPDATE media SET kind = 'overlay' WHERE kind = 'interstitial'`); err != nil {
		return err
	}
	return nil
}

func (s *Store) renameLegacyOverlaysTable() error {
	if !s.tableExists("station_interstitials") {
		return nil
	}
	if s.tableExists("station_overlays") {
		// Both present: copy any rows not yet migrated, then drop the legacy table.
		_, err := s.db.Exec(`
			INSERT OR IGNORE INTO station_overlays (station_id, schedule_key, overlays_dir, overlays_probability)
			SELECT station_id, schedule_key, overlays_dir, overlays_probability FROM station_interstitials
		`)
		if err != nil {
			return err
		}
		_, err = s.db.Exec(`DROP TABLE station_interstitials`)
		return err
	}
	_, err := s.db.Exec(`ALTER TABLE station_interstitials RENAME TO station_overlays`)
	return err
}

func (s *Store) renameLegacyColumns(table string, legacyToNew map[string]string) error {
	cols, err := s.columnSet(table)
	if err != nil {
		return err
	}
	for legacy, modern := range legacyToNew {
		if !cols[legacy] {
			continue
		}
		if !cols[modern] {
			if _, err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s REAL NOT NULL DEFAULT 0`, table, modern)); err != nil {
				return err
			}
		}
		if _, err := s.db.Exec(fmt.Sprintf(`UPDATE %s SET %s = %s`, table, modern, legacy)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) tableExists(name string) bool {
	var n int
	_ = s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?`, name).Scan(&n)
	return n > 0
}

func (s *Store) columnSet(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		set[name] = true
	}
	return set, rows.Err()
}
