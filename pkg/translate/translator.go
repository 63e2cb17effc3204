package translate

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/store"
)

// Translator defines the interface for translation backends.
// Each backend turns a source-language query into an English translation
// plus a list of suggestion words.
type Translator interface {
	// Name returns the engine name, e.g. "youdao".
	Name() string

	// Request translates query to English. Transport and response-shape
	// failures are returned as errors; callers treat them as "no translation".
	Request(ctx context.Context, query string) (*Result, error)
}

// Result is the translation of one query.
type Result struct {
	Suggestion  []string `json:"suggestion"`
	Translation string   `json:"translation"`
}

// DefaultTimeout bounds every provider call.
const DefaultTimeout = 10 * time.Second

// newHTTPClient builds the resty client shared by all backends.
func newHTTPClient(cfg Config) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().SetTimeout(timeout)
	if cfg.Proxy != "" {
		c.SetProxy(cfg.Proxy)
	}
	return c
}

// newCache returns the backend-private translation cache. Translations never
// expire within a session.
func newCache(engine EngineType, storage store.Storage) *store.Store[Result] {
	return store.New[Result](store.Forever, storage, string(engine))
}

// cachedRequest serves query from cache or calls fetch and caches its result.
func cachedRequest(
	query string,
	cache *store.Store[Result],
	metrics *MetricsCollector,
	logger *logrus.Logger,
	fetch func() (*Result, error),
) (*Result, error) {
	if res, ok := cache.Get(query); ok {
		metrics.RecordCacheHit()
		logger.WithFields(logrus.Fields{
			"engine": metrics.engine,
		}).Debug("Translation served from cache")
		return &res, nil
	}

	startTime := time.Now()
	res, err := fetch()
	duration := time.Since(startTime)
	if err != nil {
		metrics.RecordTranslationRequest(duration, false, len(query), 0)
		return nil, err
	}
	metrics.RecordTranslationRequest(duration, true, len(query), len(res.Translation))

	if err := cache.Save(query, *res); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"engine": metrics.engine,
		}).Warn("Failed to cache translation")
	}

	logger.WithFields(logrus.Fields{
		"engine":      metrics.engine,
		"duration_ms": duration.Milliseconds(),
		"suggestions": len(res.Suggestion),
	}).Info("Translation completed successfully")
	return res, nil
}
