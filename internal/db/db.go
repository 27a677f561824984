package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrCorrupt marks a stored hole that no longer passes validation.
	ErrCorrupt = errors.New("corrupt hole record")
)

// Store is the SQLite-backed round store.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db path: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", filepath.Clean(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	return s.db.PingContext(ctx)
}

func createTables(db *sql.DB) error {
	createRoundsTable := `CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		course_name TEXT NOT NULL,
		played_at INTEGER NOT NULL,
		slope INTEGER,
		course_rating REAL,
		hole_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		thru INTEGER NOT NULL DEFAULT 0
	);`

	createPlayersTable := `CREATE TABLE IF NOT EXISTS players (
		round_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (round_id, position),
		FOREIGN KEY(round_id) REFERENCES rounds(id) ON DELETE CASCADE
	);`

	createHolesTable := `CREATE TABLE IF NOT EXISTS holes (
		round_id TEXT NOT NULL,
		player_position INTEGER NOT NULL,
		hole_number INTEGER NOT NULL,
		par INTEGER NOT NULL,
		score INTEGER NOT NULL,
		putts INTEGER NOT NULL,
		fairway TEXT NOT NULL,
		gir TEXT NOT NULL,
		miss_directions TEXT NOT NULL DEFAULT '',
		pin_position TEXT NOT NULL,
		penalties INTEGER NOT NULL DEFAULT 0,
		club TEXT,
		up_and_down INTEGER,
		sand_save INTEGER,
		notes TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (round_id, player_position, hole_number),
		FOREIGN KEY(round_id, player_position) REFERENCES players(round_id, position) ON DELETE CASCADE
	);`

	createCoursesTable := `CREATE TABLE IF NOT EXISTS courses (
		name TEXT PRIMARY KEY COLLATE NOCASE,
		pars TEXT NOT NULL
	);`

	for _, stmt := range []string{createRoundsTable, createPlayersTable, createHolesTable, createCoursesTable} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
