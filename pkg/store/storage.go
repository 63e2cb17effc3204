// Package store provides the pluggable key-value storage backends and the
// TTL-based cache built on top of them.
package store

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Storage is the capability set every cache backend must provide.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Read returns the value stored under key and whether it exists.
	Read(key string) (string, bool, error)
	// Write stores value under key, replacing any previous value.
	Write(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Len returns the number of stored keys.
	Len() (int, error)
	// Key returns the key at position index in enumeration order.
	Key(index int) (string, bool, error)
}

// Type selects a storage backend.
type Type string

const (
	// TypeMemory keeps records in a process-local map. It is also the fallback.
	TypeMemory Type = "memory"
	// TypeLRU keeps at most Config.Size records in memory, evicting the oldest.
	TypeLRU Type = "lru"
	// TypeSQLite persists records in a SQLite database file.
	TypeSQLite Type = "sqlite"
)

// DefaultLRUSize is used when an LRU backend is requested without a size.
const DefaultLRUSize = 1024

// Config describes which storage backend to open.
type Config struct {
	Type Type
	// Path is the SQLite database file.
	Path string
	// Size bounds the LRU backend.
	Size int
}

// ParseType parses a backend name.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "memory", "session":
		return TypeMemory, nil
	case "lru":
		return TypeLRU, nil
	case "sqlite", "local":
		return TypeSQLite, nil
	default:
		return "", fmt.Errorf("unknown storage type: %s (supported: memory, lru, sqlite)", s)
	}
}

// Open creates the storage described by cfg. When the requested backend is
// unknown or cannot be opened, a fresh MemoryStorage is returned instead so
// the cache stays usable.
func Open(cfg Config, logger *logrus.Logger) Storage {
	if logger == nil {
		logger = logrus.New()
	}

	var (
		s   Storage
		err error
	)
	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStorage()
	case TypeLRU:
		s, err = NewLRUStorage(cfg.Size)
	case TypeSQLite:
		s, err = NewSQLiteStorage(cfg.Path)
	default:
		err = fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"storage_type": cfg.Type,
			"path":         cfg.Path,
		}).Warn("Storage backend unavailable, falling back to memory")
		return NewMemoryStorage()
	}

	logger.WithFields(logrus.Fields{
		"storage_type": cfg.Type,
	}).Debug("Opened cache storage")
	return s
}
