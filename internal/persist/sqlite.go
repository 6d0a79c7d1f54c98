package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"go.uber.org/zap"
)

const (
	databaseFilename = "mirrorctl.db"

	// SessionRecord holds the persisted subset of the session store
	SessionRecord = "mirrorctl-storage"
	// LocaleRecord holds the display language preference
	LocaleRecord = "language"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

var supportedLocales = map[string]bool{"en": true, "tr": true}

// SQLiteStore keeps named JSON records in a local SQLite database
type SQLiteStore struct {
	logger        *zap.Logger
	db            *sql.DB
	path          string
	defaultLocale string
}

// NewSQLiteStore opens (or creates) the database inside dataDir
func NewSQLiteStore(logger *zap.Logger, dataDir, defaultLocale string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, databaseFilename)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if !supportedLocales[defaultLocale] {
		defaultLocale = "en"
	}

	logger.Info("Database initialized", zap.String("path", path))

	return &SQLiteStore{
		logger:        logger,
		db:            db,
		path:          path,
		defaultLocale: defaultLocale,
	}, nil
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load decodes the session record into state
func (s *SQLiteStore) Load(ctx context.Context, state *domain.PersistedState) (bool, error) {
	raw, found, err := s.get(ctx, SessionRecord)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", SessionRecord, err)
	}
	return true, nil
}

// Save replaces the session record
func (s *SQLiteStore) Save(ctx context.Context, state domain.PersistedState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", SessionRecord, err)
	}
	return s.put(ctx, SessionRecord, string(raw))
}

// Locale returns the saved display language, or the default when none was saved
func (s *SQLiteStore) Locale(ctx context.Context) (string, error) {
	raw, found, err := s.get(ctx, LocaleRecord)
	if err != nil {
		return "", err
	}
	if !found || !supportedLocales[raw] {
		return s.defaultLocale, nil
	}
	return raw, nil
}

// SetLocale saves the display language
func (s *SQLiteStore) SetLocale(ctx context.Context, locale string) error {
	if !supportedLocales[locale] {
		return fmt.Errorf("%w: %q", domain.ErrInvalidLocale, locale)
	}
	return s.put(ctx, LocaleRecord, locale)
}

// Close closes the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) put(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	s.logger.Debug("Record saved", zap.String("name", name), zap.Int("bytes", len(value)))
	return nil
}
