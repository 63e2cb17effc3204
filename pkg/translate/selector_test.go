package translate

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranslator struct {
	name string
}

func (s stubTranslator) Name() string { return s.name }

func (s stubTranslator) Request(context.Context, string) (*Result, error) {
	return &Result{Translation: s.name}, nil
}

func TestSelectorRoundRobin(t *testing.T) {
	sel := NewSelector(stubTranslator{"a"}, stubTranslator{"b"}, stubTranslator{"c"})

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, sel.Select().Name())
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
	assert.Equal(t, 3, sel.Len())
	assert.Equal(t, []string{"a", "b", "c"}, sel.Names())
}

func TestSelectorEmpty(t *testing.T) {
	sel := NewSelector()
	assert.Nil(t, sel.Select())
	assert.Zero(t, sel.Len())
}

func TestSelectorDoesNotAliasInput(t *testing.T) {
	backends := []Translator{stubTranslator{"a"}, stubTranslator{"b"}}
	first := NewSelector(backends...)
	second := NewSelector(backends...)

	assert.Equal(t, "a", first.Select().Name())
	assert.Equal(t, "a", second.Select().Name())
	assert.Equal(t, "a", backends[0].Name())
}

func TestSelectorConcurrentFairness(t *testing.T) {
	sel := NewSelector(stubTranslator{"a"}, stubTranslator{"b"}, stubTranslator{"c"})

	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
	)
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := sel.Select().Name()
			mu.Lock()
			counts[name]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, counts, 3)
	for name, n := range counts {
		assert.Equal(t, 100, n, name)
	}
}
