// Package searchcode queries the searchcode.com code search API.
package searchcode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/textutil"
)

const (
	// DefaultURL is the searchcode JSON API endpoint.
	DefaultURL = "https://searchcode.com/api/codesearch_I/"
	// DefaultPerPage is the fixed page size requested from searchcode.
	DefaultPerPage = 42
	// DefaultTimeout bounds each search call.
	DefaultTimeout = 15 * time.Second
)

// Result is one matching file returned by searchcode.
type Result struct {
	Name     string            `json:"name"`
	Filename string            `json:"filename"`
	Repo     string            `json:"repo"`
	Language string            `json:"language"`
	URL      string            `json:"url"`
	Location string            `json:"location"`
	Lines    map[string]string `json:"lines"`
}

// Response is the searchcode response body. A missing results list means
// zero results.
type Response struct {
	Query   string   `json:"query"`
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// Options configures a Client.
type Options struct {
	// Endpoint overrides DefaultURL.
	Endpoint string
	// PerPage overrides DefaultPerPage.
	PerPage int
	// Proxy is an optional proxy URL.
	Proxy string
	// Timeout overrides DefaultTimeout.
	Timeout time.Duration
}

// Client calls the searchcode API.
type Client struct {
	endpoint string
	perPage  int
	http     *resty.Client
	mapper   *LanguageMapper
	logger   *logrus.Logger
}

// NewClient creates a searchcode client.
func NewClient(opts Options, logger *logrus.Logger) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultURL
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}

	httpClient := resty.New().SetTimeout(opts.Timeout)
	if opts.Proxy != "" {
		httpClient.SetProxy(opts.Proxy)
	}

	return &Client{
		endpoint: opts.Endpoint,
		perPage:  opts.PerPage,
		http:     httpClient,
		mapper:   NewLanguageMapper(),
		logger:   logger,
	}
}

// Search runs a code search for query. langs are language names; names
// without a searchcode id are dropped.
func (c *Client) Search(ctx context.Context, query string, page int, langs []string) (*Response, error) {
	codes := c.mapper.ToBackendCodes(langs)

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"page":  page,
		"langs": langs,
		"codes": codes,
	}).Debug("Searching code")

	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        query,
			"p":        strconv.Itoa(page),
			"per_page": strconv.Itoa(c.perPage),
		})
	if len(codes) > 0 {
		req.SetQueryParamsFromValues(url.Values{"lan": codes})
	}

	startTime := time.Now()
	resp, err := req.Get(c.endpoint)
	duration := time.Since(startTime)
	if err != nil {
		recordSearch(duration, false, 0)
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": c.endpoint,
		}).Warn("Code search request failed")
		return nil, fmt.Errorf("searchcode request: %w", err)
	}
	if resp.IsError() {
		recordSearch(duration, false, 0)
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode(),
		}).Warn("Code search returned non-OK status")
		return nil, fmt.Errorf("searchcode: unexpected status %d", resp.StatusCode())
	}

	var out Response
	if err := json.Unmarshal(textutil.UnwrapJSONP(resp.Body()), &out); err != nil {
		recordSearch(duration, false, 0)
		return nil, fmt.Errorf("searchcode: decode response: %w", err)
	}
	recordSearch(duration, true, len(out.Results))

	c.logger.WithFields(logrus.Fields{
		"results":     len(out.Results),
		"duration_ms": duration.Milliseconds(),
	}).Debug("Code search completed")
	return &out, nil
}
