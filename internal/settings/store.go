// Package settings persists user preference overrides in a SQLite database.
// Stored keys override the config file defaults for subtitle generation, so a
// preference set once applies to every later invocation.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"scribe/internal/recognition"
)

// Recognized preference keys.
const (
	KeyMethod         = "asr.method"
	KeyLanguage       = "asr.language"
	KeyModel          = "asr.model"
	KeyOutputFormat   = "asr.output_format"
	KeyTimeoutSeconds = "asr.timeout_seconds"
	KeyEnableFallback = "asr.enable_fallback"
	KeyFallbackMethod = "asr.fallback_method"
)

// Keys lists every recognized preference key in display order.
func Keys() []string {
	return []string{
		KeyMethod,
		KeyLanguage,
		KeyModel,
		KeyOutputFormat,
		KeyTimeoutSeconds,
		KeyEnableFallback,
		KeyFallbackMethod,
	}
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages preference persistence backed by SQLite. Writes additionally
// take a cross-process file lock so concurrent CLI invocations do not
// interleave.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the settings database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure settings dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:   db,
		path: dbPath,
		lock: flock.New(dbPath + ".lock"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
	if err := s.execWithRetry(ctx, schema); err != nil {
		return fmt.Errorf("init settings schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Get returns the stored value for key, or ok=false when unset.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

// Set validates and stores a preference value. Unknown keys and invalid
// values are rejected so the store never holds a value the recognizer would
// refuse.
func (s *Store) Set(ctx context.Context, key, value string) error {
	normalized, err := validateSetting(key, value)
	if err != nil {
		return err
	}

	locked, err := s.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire settings lock: %w", err)
	}
	if !locked {
		return errors.New("settings database is locked by another process")
	}
	defer func() { _ = s.lock.Unlock() }()

	err = s.execWithRetry(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, normalized, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Unset removes a stored preference. Removing an absent key is not an error.
func (s *Store) Unset(ctx context.Context, key string) error {
	if !knownKey(key) {
		return fmt.Errorf("unknown setting %q (expected one of %s)", key, strings.Join(Keys(), ", "))
	}
	if err := s.execWithRetry(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("unset setting %q: %w", key, err)
	}
	return nil
}

// All returns every stored preference sorted by key.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("list settings: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return values, nil
}

// Apply overlays stored preferences onto a recognition config. Values were
// validated on write; a value that no longer parses (schema drift) is
// skipped.
func (s *Store) Apply(ctx context.Context, cfg recognition.Config) (recognition.Config, error) {
	stored, err := s.All(ctx)
	if err != nil {
		return cfg, err
	}
	for key, value := range stored {
		switch key {
		case KeyMethod:
			if method, err := recognition.ParseMethod(value); err == nil {
				cfg.Method = method
			}
		case KeyLanguage:
			if lang, err := recognition.ParseLanguage(value); err == nil {
				cfg.Language = lang
			}
		case KeyModel:
			cfg.Model = value
		case KeyOutputFormat:
			if format, err := recognition.ParseOutputFormat(value); err == nil {
				cfg.OutputFormat = format
			}
		case KeyTimeoutSeconds:
			if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
				cfg.TimeoutSeconds = seconds
			}
		case KeyEnableFallback:
			if enabled, err := strconv.ParseBool(value); err == nil {
				cfg.EnableFallback = enabled
			}
		case KeyFallbackMethod:
			if method, err := recognition.ParseMethod(value); err == nil {
				cfg.FallbackMethod = method
			}
		}
	}
	return cfg, nil
}

func validateSetting(key, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch key {
	case KeyMethod, KeyFallbackMethod:
		method, err := recognition.ParseMethod(value)
		if err != nil {
			return "", err
		}
		return string(method), nil
	case KeyLanguage:
		lang, err := recognition.ParseLanguage(value)
		if err != nil {
			return "", err
		}
		return string(lang), nil
	case KeyModel:
		if value == "" {
			return "", errors.New("model must not be empty")
		}
		return value, nil
	case KeyOutputFormat:
		format, err := recognition.ParseOutputFormat(value)
		if err != nil {
			return "", err
		}
		return string(format), nil
	case KeyTimeoutSeconds:
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds < 0 {
			return "", fmt.Errorf("timeout must be a non-negative integer, got %q", value)
		}
		return strconv.Itoa(seconds), nil
	case KeyEnableFallback:
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("enable_fallback must be a boolean, got %q", value)
		}
		return strconv.FormatBool(enabled), nil
	default:
		return "", fmt.Errorf("unknown setting %q (expected one of %s)", key, strings.Join(Keys(), ", "))
	}
}

func knownKey(key string) bool {
	for _, known := range Keys() {
		if key == known {
			return true
		}
	}
	return false
}

// SortedKeys returns the keys of a settings map in stable order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
