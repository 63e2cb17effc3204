package store

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStorage is a bounded in-memory storage. Once full, the least recently
// used record is evicted on write.
type LRUStorage struct {
	cache *lru.Cache[string, string]
}

// NewLRUStorage creates an LRU storage holding at most size records.
func NewLRUStorage(size int) (*LRUStorage, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUStorage{cache: cache}, nil
}

func (l *LRUStorage) Read(key string) (string, bool, error) {
	v, ok := l.cache.Get(key)
	return v, ok, nil
}

func (l *LRUStorage) Write(key, value string) error {
	l.cache.Add(key, value)
	return nil
}

func (l *LRUStorage) Remove(key string) error {
	l.cache.Remove(key)
	return nil
}

func (l *LRUStorage) Len() (int, error) {
	return l.cache.Len(), nil
}

// Key enumerates from the oldest to the most recently used record.
func (l *LRUStorage) Key(index int) (string, bool, error) {
	keys := l.cache.Keys()
	if index < 0 || index >= len(keys) {
		return "", false, nil
	}
	return keys[index], true, nil
}
