// Package codelf ties the query pipeline together: it normalizes a query,
// translates source-language input through the round-robin translators,
// searches public code and extracts candidate identifiers, caching each
// result under a hash of the effective query.
package codelf

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/dasmlab/codelf/pkg/extract"
	"github.com/dasmlab/codelf/pkg/searchcode"
	"github.com/dasmlab/codelf/pkg/store"
	"github.com/dasmlab/codelf/pkg/textutil"
	"github.com/dasmlab/codelf/pkg/translate"
)

// VariableCachePrefix namespaces result records in the storage.
const VariableCachePrefix = "variable_list_key"

// Searcher runs one code search. *searchcode.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, page int, langs []string) (*searchcode.Response, error)
}

// Config holds configuration for creating a Client.
type Config struct {
	// Translators are built in order with translate.NewTranslator.
	Translators []translate.Config
	// Backends are prebuilt translators appended after Translators.
	Backends []translate.Translator
	// Searcher overrides the searchcode client built from Search.
	Searcher Searcher
	// Search configures the default searchcode client.
	Search searchcode.Options
	// Storage backs the result cache and every translator cache without
	// its own storage. Nil means a fresh memory storage for this client.
	Storage store.Storage
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// Client answers variable-name queries.
type Client struct {
	selector *translate.Selector
	searcher Searcher
	results  *store.Store[VariableResult]
	group    singleflight.Group
	logger   *logrus.Logger
}

// New creates a Client. A translator config that cannot be built is an error.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Storage == nil {
		cfg.Storage = store.NewMemoryStorage()
	}

	backends := make([]translate.Translator, 0, len(cfg.Translators)+len(cfg.Backends))
	for _, tc := range cfg.Translators {
		if tc.Storage == nil {
			tc.Storage = cfg.Storage
		}
		if tc.Logger == nil {
			tc.Logger = cfg.Logger
		}
		t, err := translate.NewTranslator(tc)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s translator: %w", tc.Engine, err)
		}
		backends = append(backends, t)
	}
	backends = append(backends, cfg.Backends...)

	searcher := cfg.Searcher
	if searcher == nil {
		searcher = searchcode.NewClient(cfg.Search, cfg.Logger)
	}

	c := &Client{
		selector: translate.NewSelector(backends...),
		searcher: searcher,
		results:  store.New[VariableResult](store.Forever, cfg.Storage, VariableCachePrefix),
		logger:   cfg.Logger,
	}

	cfg.Logger.WithFields(logrus.Fields{
		"translators": c.selector.Names(),
	}).Info("Codelf client created")
	return c, nil
}

// Translators lists the configured translation engines in rotation order.
func (c *Client) Translators() []string {
	return c.selector.Names()
}

// Search is RequestVariable for a bare query: page 1, no language filter.
func (c *Client) Search(ctx context.Context, query string) (*VariableResult, error) {
	return c.RequestVariable(ctx, QueryOption{Query: query, Page: 1})
}

// RequestVariable looks up candidate identifiers for opt.
//
// The only error is ErrNoTranslator. Translation failures fall back to the
// normalized query and search failures yield an empty, uncached variable list.
func (c *Client) RequestVariable(ctx context.Context, opt QueryOption) (*VariableResult, error) {
	page := opt.Page
	if page <= 0 {
		page = 1
	}
	langs := append([]string{}, opt.Lang...)
	res := emptyResult(opt.Query, page, langs)

	query := textutil.NormalizeQuery(opt.Query)
	if query == "" {
		recordOutcome(outcomeEmpty)
		return res, nil
	}

	res.IsZH = textutil.IsZH(query)
	suggestion := fold(characters(query), nil)
	effective := query

	logger := c.logger.WithFields(logrus.Fields{
		"query": query,
		"page":  page,
		"is_zh": res.IsZH,
	})

	if res.IsZH {
		translator := c.selector.Select()
		if translator == nil {
			recordOutcome(outcomeError)
			return nil, fmt.Errorf("request variable %q: %w", query, ErrNoTranslator)
		}
		tr, err := translator.Request(ctx, query)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"engine": translator.Name(),
			}).Warn("Translation failed, searching untranslated query")
		} else {
			effective = tr.Translation
			suggestion = fold(tr.Suggestion, suggestion)
			suggestion = fold(strings.Split(effective, " "), suggestion)
			logger.WithFields(logrus.Fields{
				"engine":      translator.Name(),
				"translation": effective,
			}).Debug("Query translated")
		}
	}
	res.Suggestion = suggestion

	key := cacheKey(effective, page, langs)
	if cached, ok := c.results.Get(key); ok {
		recordCacheLookup(true)
		recordOutcome(outcomeCached)
		res.VariableList = nonNil(cached.VariableList)
		logger.Debug("Variable list served from cache")
		return res, nil
	}
	recordCacheLookup(false)

	// The shared search outlives any single caller; failures are not cached.
	searchCtx := context.WithoutCancel(ctx)
	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		list, err := c.searchVariables(searchCtx, effective, page, langs)
		if err != nil {
			logger.WithError(err).Warn("Code search failed, returning no variables")
			return []RepoResult{}, nil
		}
		cached := *res
		cached.VariableList = list
		if err := c.results.Save(key, cached); err != nil {
			logger.WithError(err).Warn("Failed to cache variable list")
		}
		return list, nil
	})
	res.VariableList = v.([]RepoResult)
	recordOutcome(outcomeFresh)

	logger.WithFields(logrus.Fields{
		"variables":   len(res.VariableList),
		"suggestions": len(res.Suggestion),
	}).Info("Variable request completed")
	return res, nil
}

// searchVariables runs the code search for query and extracts candidates.
func (c *Client) searchVariables(ctx context.Context, query string, page int, langs []string) ([]RepoResult, error) {
	if query == "" {
		return []RepoResult{}, nil
	}
	resp, err := c.searcher.Search(ctx, query, page, langs)
	if err != nil {
		return nil, fmt.Errorf("search %q page %d: %w", query, page, err)
	}
	if resp == nil {
		return []RepoResult{}, nil
	}

	candidates := extract.Variables(resp.Results, query)
	list := make([]RepoResult, 0, len(candidates))
	for _, cand := range candidates {
		list = append(list, RepoResult{
			Keyword:  cand.Keyword,
			RepoLink: cand.RepoLink,
			RepoLang: cand.RepoLang,
		})
	}
	return list, nil
}

// Close releases the storage backing the caches when it holds resources.
func (c *Client) Close() error {
	if closer, ok := c.results.Storage().(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func cacheKey(query string, page int, langs []string) string {
	return textutil.MD5(query + strconv.Itoa(page) + strings.Join(langs, ","))
}

func nonNil(list []RepoResult) []RepoResult {
	if list == nil {
		return []RepoResult{}
	}
	return list
}
