package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/store"
)

// DefaultBingURL is the Microsoft Translator v3 endpoint.
const DefaultBingURL = "https://api.cognitive.microsofttranslator.com/translate"

// BingTranslator implements the Translator interface using Microsoft Translator.
type BingTranslator struct {
	key      string
	region   string
	endpoint string
	http     *resty.Client
	cache    *store.Store[Result]
	metrics  *MetricsCollector
	logger   *logrus.Logger
}

// NewBingTranslator creates a Bing translator from cfg.
func NewBingTranslator(cfg Config) *BingTranslator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultBingURL
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &BingTranslator{
		key:      cfg.AppKey,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
		http:     newHTTPClient(cfg),
		cache:    newCache(EngineBing, cfg.Storage),
		metrics:  NewMetricsCollector(string(EngineBing)),
		logger:   cfg.Logger,
	}
}

type bingText struct {
	Text string `json:"Text"`
}

type bingResponse []struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Name implements Translator.
func (b *BingTranslator) Name() string { return string(EngineBing) }

// Request implements Translator.
func (b *BingTranslator) Request(ctx context.Context, query string) (*Result, error) {
	return cachedRequest(query, b.cache, b.metrics, b.logger, func() (*Result, error) {
		return b.fetch(ctx, query)
	})
}

func (b *BingTranslator) fetch(ctx context.Context, query string) (*Result, error) {
	// One entry per word.
	words := strings.Split(query, " ")
	body := make([]bingText, 0, len(words))
	for _, w := range words {
		body = append(body, bingText{Text: w})
	}

	b.logger.WithFields(logrus.Fields{
		"text_length": len(query),
		"segments":    len(body),
	}).Debug("Translating text with Bing")

	req := b.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", b.key).
		SetHeader("Content-Type", "application/json; charset=UTF-8").
		SetQueryParams(map[string]string{
			"api-version": "3.0",
			"to":          "en",
		}).
		SetBody(body)
	if b.region != "" {
		req.SetHeader("Ocp-Apim-Subscription-Region", b.region)
	}

	resp, err := req.Post(b.endpoint)
	if err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"url": b.endpoint,
		}).Warn("Bing request failed")
		return nil, fmt.Errorf("bing request: %w", err)
	}
	if resp.IsError() {
		b.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		}).Warn("Bing returned non-OK status")
		return nil, fmt.Errorf("bing: unexpected status %d", resp.StatusCode())
	}

	var data bingResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("bing: decode response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("bing: empty response")
	}

	var texts []string
	for _, item := range data {
		for _, tr := range item.Translations {
			texts = append(texts, tr.Text)
		}
	}
	return &Result{
		Suggestion:  FormatSuggestion(strings.Join(texts, " ")),
		Translation: FormatTranslation(texts),
	}, nil
}
