package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/codelf/pkg/textutil"
)

type payload struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestStoreRoundTrip(t *testing.T) {
	s := New[payload](Forever, NewMemoryStorage(), "test")

	want := payload{Name: "camera", Words: []string{"camera", "lens"}}
	require.NoError(t, s.Save("摄像头", want))

	got, ok := s.Get("摄像头")
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = s.Get("unknown")
	assert.False(t, ok)
}

func TestStoreHashesIDs(t *testing.T) {
	mem := NewMemoryStorage()
	s := New[string](Forever, mem, "p_")
	require.NoError(t, s.Save("some id", "v"))

	key, ok, err := mem.Key(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "CODELF_p_"+textutil.MD5("some id"), key)
}

func TestStoreExpiry(t *testing.T) {
	clock := newClock()
	mem := NewMemoryStorage()
	s := New[string](0, mem, "", WithClock(clock.Now))

	require.NoError(t, s.Save("k", "v"))
	n, _ := mem.Len()
	require.Equal(t, 1, n)

	clock.Advance(time.Millisecond)
	_, ok := s.Get("k")
	assert.False(t, ok)

	n, _ = mem.Len()
	assert.Equal(t, 0, n, "expired record should be removed on read")
	_, ok, _ = mem.Key(0)
	assert.False(t, ok)
}

func TestStoreTTLBoundary(t *testing.T) {
	clock := newClock()
	s := New[int](time.Minute, nil, "", WithClock(clock.Now))
	require.NoError(t, s.Save("k", 42))

	clock.Advance(time.Minute)
	v, ok := s.Get("k")
	require.True(t, ok, "a record exactly expire old is still valid")
	assert.Equal(t, 42, v)

	clock.Advance(time.Nanosecond)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestStoreNegativeExpireUsesDefault(t *testing.T) {
	clock := newClock()
	s := New[int](-1, nil, "", WithClock(clock.Now))
	require.NoError(t, s.Save("k", 1))

	clock.Advance(DefaultExpire)
	_, ok := s.Get("k")
	require.True(t, ok)

	clock.Advance(time.Nanosecond)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestStoreForeverNeverExpires(t *testing.T) {
	clock := newClock()
	s := New[string](Forever, nil, "", WithClock(clock.Now))
	require.NoError(t, s.Save("k", "v"))

	clock.Advance(100 * 365 * 24 * time.Hour)
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStoreSaveOverwritesAndResetsCreated(t *testing.T) {
	clock := newClock()
	s := New[string](time.Minute, nil, "", WithClock(clock.Now))
	require.NoError(t, s.Save("k", "old"))

	clock.Advance(50 * time.Second)
	require.NoError(t, s.Save("k", "new"))

	clock.Advance(50 * time.Second)
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestStoreCorruptRecordIsMiss(t *testing.T) {
	mem := NewMemoryStorage()
	s := New[string](Forever, mem, "")
	require.NoError(t, s.Save("k", "v"))

	key, _, _ := mem.Key(0)
	require.NoError(t, mem.Write(key, "{not json"))

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestStoreRemove(t *testing.T) {
	s := New[string](Forever, nil, "")
	require.NoError(t, s.Save("k", "v"))
	require.NoError(t, s.Remove("k"))
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestStorePrefixIsolation(t *testing.T) {
	mem := NewMemoryStorage()
	a := New[string](Forever, mem, "youdao")
	b := New[string](Forever, mem, "bing")

	require.NoError(t, a.Save("k", "from-a"))
	_, ok := b.Get("k")
	assert.False(t, ok)
}

func TestStoreOverStorages(t *testing.T) {
	lruStorage, err := NewLRUStorage(4)
	require.NoError(t, err)
	sqliteStorage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStorage.Close() })

	for name, st := range map[string]Storage{
		"memory": NewMemoryStorage(),
		"lru":    lruStorage,
		"sqlite": sqliteStorage,
	} {
		t.Run(name, func(t *testing.T) {
			s := New[payload](Forever, st, "x")
			want := payload{Name: "n", Words: []string{"a"}}
			require.NoError(t, s.Save("id", want))
			got, ok := s.Get("id")
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}
