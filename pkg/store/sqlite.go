package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const kvTable = "kv"

// SQLiteStorage persists records in a single key-value table.
type SQLiteStorage struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewSQLiteStorage opens (or creates) the database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, errors.New("sqlite storage requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("make db dir: %w", err)
	}
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &SQLiteStorage{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func (s *SQLiteStorage) Read(key string) (string, bool, error) {
	sqlStr, args, err := s.sb.Select("value").From(kvTable).Where(sq.Eq{"key": key}).Limit(1).ToSql()
	if err != nil {
		return "", false, err
	}
	var value string
	if err := s.db.QueryRow(sqlStr, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Write(key, value string) error {
	sqlStr, args, err := s.sb.Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Remove(key string) error {
	sqlStr, args, err := s.sb.Delete(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Len() (int, error) {
	sqlStr, args, err := s.sb.Select("COUNT(*)").From(kvTable).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRow(sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count keys: %w", err)
	}
	return n, nil
}

// Key enumerates keys in insertion (rowid) order.
func (s *SQLiteStorage) Key(index int) (string, bool, error) {
	if index < 0 {
		return "", false, nil
	}
	sqlStr, args, err := s.sb.Select("key").From(kvTable).
		OrderBy("rowid").Limit(1).Offset(uint64(index)).ToSql()
	if err != nil {
		return "", false, err
	}
	var key string
	if err := s.db.QueryRow(sqlStr, args...).Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("key at %d: %w", index, err)
	}
	return key, true, nil
}

// Close releases the database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
