package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a blob store that survives restarts. The generation is persisted
// next to the blobs.
type SQLite struct {
	DB         *sql.DB
	mu         sync.RWMutex
	generation string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS googlemaps_cache (
	key TEXT NOT NULL PRIMARY KEY
	,blob BLOB
);
CREATE TABLE IF NOT EXISTS googlemaps_meta (
	name TEXT NOT NULL PRIMARY KEY
	,value TEXT
);
INSERT INTO googlemaps_meta (name, value) VALUES ('generation', '0') ON CONFLICT (name) DO NOTHING;
`

func OpenSQLite(dataSourceName string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = normal",
	} {
		_, err = db.Exec(pragma)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	_, err = db.Exec(sqliteSchema)
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLite{DB: db}
	err = db.QueryRow("SELECT value FROM googlemaps_meta WHERE name = 'generation'").Scan(&s.generation)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Fetch(key string) ([]byte, bool, error) {
	var blob []byte
	err := s.DB.QueryRow("SELECT blob FROM googlemaps_cache WHERE key = ?", key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

func (s *SQLite) Save(key string, blob []byte) error {
	_, err := s.DB.Exec(
		"INSERT INTO googlemaps_cache (key, blob) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob",
		key, blob,
	)
	return err
}

func (s *SQLite) Delete(key string) error {
	_, err := s.DB.Exec("DELETE FROM googlemaps_cache WHERE key = ?", key)
	return err
}

func (s *SQLite) Generation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Invalidate removes every blob and moves the store to a new generation.
func (s *SQLite) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := strconv.ParseUint(s.generation, 10, 64)
	if err != nil {
		return fmt.Errorf("generation %q: %w", s.generation, err)
	}
	next := strconv.FormatUint(n+1, 10)
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	_, err = tx.Exec("DELETE FROM googlemaps_cache")
	if err != nil {
		return err
	}
	_, err = tx.Exec("UPDATE googlemaps_meta SET value = ? WHERE name = 'generation'", next)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	s.generation = next
	return nil
}

func (s *SQLite) Close() error {
	_, _ = s.DB.Exec("PRAGMA optimize")
	return s.DB.Close()
}
