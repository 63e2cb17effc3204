package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dasmlab/codelf/pkg/textutil"
)

const storagePrefix = "CODELF_"

const (
	// Forever disables expiry.
	Forever = time.Duration(math.MaxInt64)
	// DefaultExpire is the record lifetime used for a negative expire.
	DefaultExpire = time.Hour
)

type record[T any] struct {
	ID      string    `json:"id"`
	Data    T         `json:"data"`
	Created time.Time `json:"created"`
}

// Store is a TTL cache of T values over a Storage. Ids are hashed before use
// so callers may pass arbitrary strings.
type Store[T any] struct {
	expire  time.Duration
	storage Storage
	prefix  string
	now     func() time.Time
}

// Option customizes a Store.
type Option func(*storeOptions)

type storeOptions struct {
	now func() time.Time
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// New creates a Store whose records expire after expire. A negative expire
// means DefaultExpire and a nil storage gets a fresh MemoryStorage.
func New[T any](expire time.Duration, storage Storage, prefix string, opts ...Option) *Store[T] {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if expire < 0 {
		expire = DefaultExpire
	}
	return &Store[T]{
		expire:  expire,
		storage: storage,
		prefix:  prefix,
		now:     o.now,
	}
}

func (s *Store[T]) key(id string) (hashed, full string) {
	hashed = textutil.MD5(id)
	return hashed, storagePrefix + s.prefix + hashed
}

// Get returns the data saved under id. Missing, unreadable and expired
// records all report a miss; expired records are removed as a side effect.
func (s *Store[T]) Get(id string) (T, bool) {
	var zero T
	_, key := s.key(id)

	raw, ok, err := s.storage.Read(key)
	if err != nil || !ok {
		return zero, false
	}
	var rec record[T]
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return zero, false
	}
	if s.expired(rec.Created) {
		_ = s.storage.Remove(key)
		return zero, false
	}
	return rec.Data, true
}

func (s *Store[T]) expired(created time.Time) bool {
	if s.expire == Forever {
		return false
	}
	return s.now().Sub(created) > s.expire
}

// Save stores data under id, overwriting any existing record and resetting
// its creation time.
func (s *Store[T]) Save(id string, data T) error {
	hashed, key := s.key(id)
	raw, err := json.Marshal(record[T]{
		ID:      hashed,
		Data:    data,
		Created: s.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.storage.Write(key, string(raw))
}

// Remove drops the record saved under id.
func (s *Store[T]) Remove(id string) error {
	_, key := s.key(id)
	return s.storage.Remove(key)
}

// Storage returns the backing storage.
func (s *Store[T]) Storage() Storage {
	return s.storage
}
