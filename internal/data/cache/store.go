// # internal/data/cache/store.go
package cache

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"autoinject/internal/engine/inject"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// fixed width so stored timestamps sort lexically
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Key identifies a cached transform. A stored row only matches when both
// hashes agree with the current input.
type Key struct {
	Path        string
	ContentHash string
	OptionsHash string
}

func (k Key) String() string {
	return k.Path + "@" + k.ContentHash + "/" + k.OptionsHash
}

// Entry is a cached transform outcome. Map holds the encoded v3 source map.
type Entry struct {
	Status  string
	Code    string
	Map     []byte
	Imports []inject.PendingImport
}

// Run summarizes one build.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
	Rewritten  int
	Unchanged  int
	Warned     int
	Skipped    int
	Failed     int
	Imports    int
}

// Dependency is one import injected into a file.
type Dependency struct {
	Path   string
	Module string
	Export string
	Local  string
	RunID  string
}

// Store persists transform results, injected dependencies and build runs
// in SQLite.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Get returns the entry stored for key.Path if its hashes match.
func (s *Store) Get(key Key) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		entry       Entry
		importsJSON []byte
	)
	err := s.withRetry("get transform", func() error {
		return s.db.QueryRow(`
SELECT status, code, map_json, imports_json
FROM transforms
WHERE path = ? AND content_hash = ? AND options_hash = ?
`, key.Path, key.ContentHash, key.OptionsHash).Scan(&entry.Status, &entry.Code, &entry.Map, &importsJSON)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	if len(importsJSON) > 0 {
		if err := json.Unmarshal(importsJSON, &entry.Imports); err != nil {
			return Entry{}, false, fmt.Errorf("decode cached imports for %q: %w", key.Path, err)
		}
	}
	return entry, true, nil
}

// Put replaces whatever is stored for key.Path.
func (s *Store) Put(key Key, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var importsJSON []byte
	if len(entry.Imports) > 0 {
		raw, err := json.Marshal(entry.Imports)
		if err != nil {
			return fmt.Errorf("encode imports for %q: %w", key.Path, err)
		}
		importsJSON = raw
	}

	query := `
INSERT INTO transforms (path, content_hash, options_hash, status, code, map_json, imports_json, updated_at_utc)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
  content_hash=excluded.content_hash,
  options_hash=excluded.options_hash,
  status=excluded.status,
  code=excluded.code,
  map_json=excluded.map_json,
  imports_json=excluded.imports_json,
  updated_at_utc=excluded.updated_at_utc
`
	return s.withRetry("put transform", func() error {
		_, err := s.db.Exec(query,
			key.Path,
			key.ContentHash,
			key.OptionsHash,
			entry.Status,
			entry.Code,
			entry.Map,
			importsJSON,
			time.Now().UTC().Format(timeLayout),
		)
		return err
	})
}

// ReplaceDependencies stores the imports injected into path, dropping the
// ones recorded by earlier builds.
func (s *Store) ReplaceDependencies(path, runID string, imports []inject.PendingImport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("replace dependencies", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM injected_deps WHERE path = ?`, path); err != nil {
			_ = tx.Rollback()
			return err
		}
		for _, imp := range imports {
			if _, err := tx.Exec(`
INSERT OR IGNORE INTO injected_deps (path, module, export, local, run_id) VALUES (?, ?, ?, ?, ?)
`, path, imp.Module, imp.Export, imp.Local, runID); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// Dependencies lists recorded imports for path, or for every file when
// path is empty, ordered by path then module.
func (s *Store) Dependencies(path string) ([]Dependency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT path, module, export, local, run_id FROM injected_deps`
	args := make([]any, 0, 1)
	if path != "" {
		query += " WHERE path = ?"
		args = append(args, path)
	}
	query += " ORDER BY path ASC, module ASC, export ASC, local ASC"

	var rows *sql.Rows
	err := s.withRetry("load dependencies", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deps := make([]Dependency, 0)
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.Path, &d.Module, &d.Export, &d.Local, &d.RunID); err != nil {
			return nil, fmt.Errorf("scan dependency row: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependency rows: %w", err)
	}
	return deps, nil
}

// BeginRun records the start of a build and returns its id.
func (s *Store) BeginRun(started time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	err := s.withRetry("begin run", func() error {
		_, err := s.db.Exec(`INSERT INTO builds (run_id, started_at_utc) VALUES (?, ?)`,
			id, started.UTC().Format(timeLayout))
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FinishRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	return s.withRetry("finish run", func() error {
		_, err := s.db.Exec(`
UPDATE builds SET
  finished_at_utc = ?, files = ?, rewritten = ?, unchanged = ?, warned = ?, skipped = ?, failed = ?, imports = ?
WHERE run_id = ?
`,
			run.FinishedAt.UTC().Format(timeLayout),
			run.Files, run.Rewritten, run.Unchanged, run.Warned, run.Skipped, run.Failed, run.Imports,
			run.ID,
		)
		return err
	})
}

// Runs returns the most recent builds, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, started_at_utc, finished_at_utc, files, rewritten, unchanged, warned, skipped, failed, imports
FROM builds
ORDER BY started_at_utc DESC
LIMIT ?
`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		var startedRaw, finishRaw string
		if err := rows.Scan(&run.ID, &startedRaw, &finishRaw,
			&run.Files, &run.Rewritten, &run.Unchanged, &run.Warned, &run.Skipped, &run.Failed, &run.Imports); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		started, err := time.Parse(timeLayout, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run start %q: %w", startedRaw, err)
		}
		run.StartedAt = started.UTC()
		if finishRaw != "" {
			finished, err := time.Parse(timeLayout, finishRaw)
			if err != nil {
				return nil, fmt.Errorf("parse run finish %q: %w", finishRaw, err)
			}
			run.FinishedAt = finished.UTC()
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	if stderrors.Is(lastErr, sql.ErrNoRows) {
		return lastErr
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// IsCorruptError reports errors that mean the cache file should be discarded.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || stderrors.Is(err, os.ErrInvalid)
}
