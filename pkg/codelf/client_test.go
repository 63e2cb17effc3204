package codelf

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/codelf/pkg/searchcode"
	"github.com/dasmlab/codelf/pkg/store"
	"github.com/dasmlab/codelf/pkg/translate"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type stubTranslator struct {
	name   string
	result *translate.Result
	err    error
	calls  atomic.Int32
}

func (s *stubTranslator) Name() string { return s.name }

func (s *stubTranslator) Request(_ context.Context, _ string) (*translate.Result, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubSearcher struct {
	mu      sync.Mutex
	queries []string
	langs   [][]string
	results []searchcode.Result
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string, _ int, langs []string) (*searchcode.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	s.langs = append(s.langs, langs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &searchcode.Response{Results: s.results}, nil
}

func (s *stubSearcher) set(results []searchcode.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.err = err
}

// gatedSearcher blocks every search until release is closed.
type gatedSearcher struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedSearcher) Search(_ context.Context, _ string, _ int, _ []string) (*searchcode.Response, error) {
	g.calls.Add(1)
	<-g.release
	return &searchcode.Response{Results: cameraResults()}, nil
}

func (s *stubSearcher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func cameraResults() []searchcode.Result {
	return []searchcode.Result{{
		Repo:     "git://github.com/acme/cam",
		Language: "Go",
		Lines: map[string]string{
			"1": "func newCameraView() {}",
			"2": "camera_id := cameraID",
		},
	}}
}

func newTestClient(t *testing.T, searcher Searcher, backends ...translate.Translator) *Client {
	t.Helper()
	c, err := New(Config{
		Backends: backends,
		Searcher: searcher,
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	return c
}

func TestRequestVariableEmptyQuery(t *testing.T) {
	tr := &stubTranslator{name: "a"}
	searcher := &stubSearcher{}
	c := newTestClient(t, searcher, tr)

	for _, q := range []string{"", "   ", "\t\n"} {
		res, err := c.RequestVariable(context.Background(), QueryOption{Query: q})
		require.NoError(t, err)
		assert.Empty(t, res.VariableList)
		assert.NotNil(t, res.VariableList)
		assert.Empty(t, res.Suggestion)
		assert.Equal(t, 1, res.Page)
		assert.False(t, res.IsZH)
	}
	assert.Zero(t, tr.calls.Load())
	assert.Zero(t, searcher.calls())
}

func TestRequestVariableTranslatesSourceLanguage(t *testing.T) {
	tr := &stubTranslator{name: "youdao", result: &translate.Result{
		Translation: "camera",
		Suggestion:  []string{"camera", "lens"},
	}}
	searcher := &stubSearcher{results: cameraResults()}
	c := newTestClient(t, searcher, tr)

	res, err := c.RequestVariable(context.Background(), QueryOption{Query: "摄像头", Lang: []string{}})
	require.NoError(t, err)

	assert.True(t, res.IsZH)
	assert.Equal(t, "摄像头", res.SearchValue)
	assert.Equal(t, []string{"camera", "lens"}, res.Suggestion)
	assert.Equal(t, []string{"camera"}, searcher.queries)

	require.Len(t, res.VariableList, 3)
	assert.Equal(t, RepoResult{
		Keyword:  "newCameraView",
		RepoLink: "https://github.com/acme/cam",
		RepoLang: "Go",
	}, res.VariableList[0])
	assert.Equal(t, "camera_id", res.VariableList[1].Keyword)
	assert.Equal(t, "cameraID", res.VariableList[2].Keyword)
}

func TestRequestVariableAsciiQuery(t *testing.T) {
	tr := &stubTranslator{name: "a"}
	searcher := &stubSearcher{results: cameraResults()}
	c := newTestClient(t, searcher, tr)

	res, err := c.RequestVariable(context.Background(), QueryOption{Query: "  camera  ", Page: 2, Lang: []string{"Go"}})
	require.NoError(t, err)

	assert.False(t, res.IsZH)
	assert.Zero(t, tr.calls.Load())
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, []string{"Go"}, res.SearchLang)
	assert.Equal(t, []string{"c", "a", "m", "e", "r"}, res.Suggestion)
	assert.Equal(t, []string{"camera"}, searcher.queries)
	assert.Equal(t, [][]string{{"Go"}}, searcher.langs)
	assert.Len(t, res.VariableList, 3)
}

func TestRequestVariableNoTranslator(t *testing.T) {
	searcher := &stubSearcher{}
	c := newTestClient(t, searcher)

	res, err := c.RequestVariable(context.Background(), QueryOption{Query: "摄像头"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTranslator))
	assert.Nil(t, res)
	assert.Zero(t, searcher.calls())

	res, err = c.Search(context.Background(), "camera")
	require.NoError(t, err)
	assert.Len(t, res.VariableList, 0)
}

func TestRequestVariableTranslationFailureDegrades(t *testing.T) {
	tr := &stubTranslator{name: "a", err: errors.New("boom")}
	searcher := &stubSearcher{}
	c := newTestClient(t, searcher, tr)

	res, err := c.RequestVariable(context.Background(), QueryOption{Query: "摄像 头"})
	require.NoError(t, err)
	assert.True(t, res.IsZH)
	assert.Empty(t, res.Suggestion)
	assert.Equal(t, []string{"摄像 头"}, searcher.queries)
}

func TestRequestVariableEmptyTranslationSkipsSearch(t *testing.T) {
	tr := &stubTranslator{name: "a", result: &translate.Result{Suggestion: []string{"lens"}}}
	searcher := &stubSearcher{}
	c := newTestClient(t, searcher, tr)

	res, err := c.RequestVariable(context.Background(), QueryOption{Query: "摄像头"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lens"}, res.Suggestion)
	assert.Empty(t, res.VariableList)
	assert.Zero(t, searcher.calls())
}

func TestRequestVariableSearchFailureDegrades(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("unreachable")}
	c := newTestClient(t, searcher)

	res, err := c.Search(context.Background(), "camera")
	require.NoError(t, err)
	assert.NotNil(t, res.VariableList)
	assert.Empty(t, res.VariableList)
	assert.NotEmpty(t, res.Suggestion)
}

func TestRequestVariableSearchFailureIsNotCached(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("connection reset")}
	c := newTestClient(t, searcher)
	ctx := context.Background()

	res, err := c.Search(ctx, "camera")
	require.NoError(t, err)
	assert.Empty(t, res.VariableList)

	searcher.set(cameraResults(), nil)
	res, err = c.Search(ctx, "camera")
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls())
	assert.NotEmpty(t, res.VariableList)

	// Now cached.
	_, err = c.Search(ctx, "camera")
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls())
}

func TestRequestVariableSearchIgnoresCallerCancellation(t *testing.T) {
	searcher := &stubSearcher{results: cameraResults()}
	c := newTestClient(t, searcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := c.Search(ctx, "camera")
	require.NoError(t, err)
	assert.Len(t, res.VariableList, 3)

	res, err = c.Search(context.Background(), "camera")
	require.NoError(t, err)
	assert.Len(t, res.VariableList, 3)
	assert.Equal(t, 1, searcher.calls())
}

func TestRequestVariableCollapsesConcurrentMisses(t *testing.T) {
	const callers = 8
	tr := &stubTranslator{name: "youdao", result: &translate.Result{Translation: "camera"}}
	searcher := &gatedSearcher{release: make(chan struct{})}
	c := newTestClient(t, searcher, tr)

	var wg sync.WaitGroup
	results := make([]*VariableResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.RequestVariable(context.Background(), QueryOption{Query: "摄像头"})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	assert.Eventually(t, func() bool {
		return tr.calls.Load() == callers && searcher.calls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(searcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), searcher.calls.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Len(t, res.VariableList, 3)
	}
}

func TestClientCloseReleasesStorage(t *testing.T) {
	sqliteStorage, err := store.NewSQLiteStorage(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	c, err := New(Config{Searcher: &stubSearcher{}, Storage: sqliteStorage, Logger: quietLogger()})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, _, err = sqliteStorage.Read("k")
	assert.Error(t, err)

	memory := newTestClient(t, &stubSearcher{})
	assert.NoError(t, memory.Close())
}

func TestRequestVariableCachesResults(t *testing.T) {
	searcher := &stubSearcher{results: cameraResults()}
	c := newTestClient(t, searcher)
	ctx := context.Background()

	first, err := c.Search(ctx, "camera")
	require.NoError(t, err)
	second, err := c.Search(ctx, " camera ")
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls())
	assert.Equal(t, first.VariableList, second.VariableList)
	assert.Equal(t, " camera ", second.SearchValue)

	_, err = c.RequestVariable(ctx, QueryOption{Query: "camera", Page: 2})
	require.NoError(t, err)
	_, err = c.RequestVariable(ctx, QueryOption{Query: "camera", Lang: []string{"Go"}})
	require.NoError(t, err)
	assert.Equal(t, 3, searcher.calls())
}

func TestRequestVariableCacheHitKeepsCallSuggestions(t *testing.T) {
	tr := &stubTranslator{name: "a", result: &translate.Result{
		Translation: "camera",
		Suggestion:  []string{"lens"},
	}}
	searcher := &stubSearcher{results: cameraResults()}
	c := newTestClient(t, searcher, tr)
	ctx := context.Background()

	_, err := c.Search(ctx, "camera")
	require.NoError(t, err)

	res, err := c.Search(ctx, "摄像头")
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls())
	assert.True(t, res.IsZH)
	assert.Equal(t, "摄像头", res.SearchValue)
	assert.Equal(t, []string{"camera", "lens"}, res.Suggestion)
	assert.Len(t, res.VariableList, 3)
}

func TestRequestVariableCacheIsolation(t *testing.T) {
	searcher := &stubSearcher{results: cameraResults()}
	a := newTestClient(t, searcher)
	b := newTestClient(t, searcher)
	ctx := context.Background()

	_, err := a.Search(ctx, "camera")
	require.NoError(t, err)
	_, err = b.Search(ctx, "camera")
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls())
}

func TestRequestVariableSharedStorage(t *testing.T) {
	storage := store.NewMemoryStorage()
	searcher := &stubSearcher{results: cameraResults()}
	newClient := func() *Client {
		c, err := New(Config{Searcher: searcher, Storage: storage, Logger: quietLogger()})
		require.NoError(t, err)
		return c
	}
	ctx := context.Background()

	_, err := newClient().Search(ctx, "camera")
	require.NoError(t, err)
	res, err := newClient().Search(ctx, "camera")
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls())
	assert.Len(t, res.VariableList, 3)
}

func TestRequestVariableRotatesTranslators(t *testing.T) {
	a := &stubTranslator{name: "a", result: &translate.Result{Translation: "camera"}}
	b := &stubTranslator{name: "b", result: &translate.Result{Translation: "camera"}}
	c := newTestClient(t, &stubSearcher{}, a, b)
	ctx := context.Background()

	for _, q := range []string{"摄像头", "镜头", "相机"} {
		_, err := c.Search(ctx, q)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, []string{"a", "b"}, c.Translators())
}

func TestNewRejectsBadTranslatorConfig(t *testing.T) {
	_, err := New(Config{
		Translators: []translate.Config{{Engine: translate.EngineYoudao}},
		Logger:      quietLogger(),
	})
	assert.Error(t, err)
}

func TestClientEndToEndOverHTTP(t *testing.T) {
	bing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"translations":[{"text":"camera","to":"en"}]}]`))
	}))
	defer bing.Close()

	var gotQuery string
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"repo":"https://github.com/a/b","language":"Go","lines":{"3":"var cameraLens int"}}]}`))
	}))
	defer search.Close()

	c, err := New(Config{
		Translators: []translate.Config{{Engine: translate.EngineBing, AppKey: "k", Endpoint: bing.URL}},
		Search:      searchcode.Options{Endpoint: search.URL},
		Logger:      quietLogger(),
	})
	require.NoError(t, err)

	res, err := c.Search(context.Background(), "摄像头")
	require.NoError(t, err)
	assert.Equal(t, "camera", gotQuery)
	assert.Contains(t, res.Suggestion, "camera")
	require.Len(t, res.VariableList, 1)
	assert.Equal(t, "cameraLens", res.VariableList[0].Keyword)
}

func TestFold(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, fold([]string{"b", "a", "b"}, nil))
	assert.Equal(t, []string{"x", "a"}, fold([]string{"x", "", " ", "摄"}, []string{"a", "x"}))
	assert.Equal(t, []string{}, fold(nil, nil))
}
