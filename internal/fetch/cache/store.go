// Package cache keeps fetched documents in a local SQLite database so that
// reloading the same page does not hit the network again.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"askip/internal/domain"
	"askip/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	kind       TEXT    NOT NULL,
	lang       TEXT    NOT NULL,
	identifier TEXT    NOT NULL,
	body       TEXT    NOT NULL,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (kind, lang, identifier)
)`

// Store is a document cache keyed by (kind, language, identifier).
// Entries older than the TTL are treated as missing; a zero TTL never expires.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// Open creates or opens the cache in dir.
// If dir is empty, defaults to ~/.cache/askip.
func Open(dir string, ttl time.Duration) (*Store, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("getting cache directory: %w", err)
		}
		dir = filepath.Join(base, "askip")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "documents.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, path: dbPath, ttl: ttl, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Get returns the cached text of src and whether a fresh entry was found.
func (s *Store) Get(ctx context.Context, src domain.Source) (string, bool, error) {
	var body string
	var fetchedAt int64
	row := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM documents WHERE kind = ? AND lang = ? AND identifier = ?`,
		string(src.Kind), src.Language, src.Identifier)
	if err := row.Scan(&body, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cached document: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > s.ttl {
		return "", false, nil
	}
	return body, true, nil
}

// Put stores text for src, replacing any previous entry.
func (s *Store) Put(ctx context.Context, src domain.Source, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (kind, lang, identifier, body, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, lang, identifier)
		DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		string(src.Kind), src.Language, src.Identifier, text, s.now().Unix())
	if err != nil {
		return fmt.Errorf("storing document: %w", err)
	}
	return nil
}

// Count returns the number of cached documents, expired ones included.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Purge removes every cached document.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("purging documents: %w", err)
	}
	return nil
}

// Wrap returns a fetcher that serves from the cache and fills it from next.
func (s *Store) Wrap(next domain.Fetcher) *Fetcher {
	return &Fetcher{store: s, next: next}
}

// Fetcher is a read-through cache in front of another fetcher. Cache read or
// write failures are logged and never fail the fetch.
type Fetcher struct {
	store *Store
	next  domain.Fetcher
}

func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (string, error) {
	text, ok, err := f.store.Get(ctx, src)
	if err != nil {
		logger.Warn("document cache unavailable", zap.String("source", src.String()), zap.Error(err))
	}
	if ok {
		logger.Debug("document cache hit", zap.String("source", src.String()))
		return text, nil
	}
	text, err = f.next.Fetch(ctx, src)
	if err != nil {
		return "", err
	}
	if err := f.store.Put(ctx, src, text); err != nil {
		logger.Warn("document not cached", zap.String("source", src.String()), zap.Error(err))
	}
	return text, nil
}
