// Package history records executed requests in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// DefaultLimit is the number of entries Recent returns when limit <= 0.
const DefaultLimit = 20

// Entry is one executed request.
type Entry struct {
	ID      string
	Time    time.Time
	Target  string
	File    string
	Method  string
	URL     string
	Status  int
	Elapsed time.Duration
	Error   string
}

// OK reports whether the request got a response.
func (e Entry) OK() bool { return e.Error == "" }

// Store manages the history database.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// DefaultPath returns the history database location under the user cache dir.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hitman", "history.db"), nil
}

// Open creates or opens the history store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		target TEXT NOT NULL,
		file TEXT NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		elapsed_us INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_executions_timestamp ON executions(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores e, assigning an id and time when they are empty.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, timestamp, target, file, method, url, status, elapsed_us, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixMicro(), e.Target, e.File, e.Method, e.URL,
		e.Status, e.Elapsed.Microseconds(), e.Error,
	)
	if err != nil {
		return e, fmt.Errorf("failed to record execution: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, target, file, method, url, status, elapsed_us, error
		FROM executions
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			ts      int64
			elapsed int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.Target, &e.File, &e.Method, &e.URL, &e.Status, &elapsed, &e.Error); err != nil {
			return nil, err
		}
		e.Time = time.UnixMicro(ts)
		e.Elapsed = time.Duration(elapsed) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune keeps only the newest keep entries.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM executions WHERE id NOT IN (
			SELECT id FROM executions ORDER BY timestamp DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}
