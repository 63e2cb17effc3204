package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/store"
	"github.com/dasmlab/codelf/pkg/textutil"
)

// DefaultYoudaoURL is the Youdao open API endpoint.
const DefaultYoudaoURL = "https://openapi.youdao.com/api"

// now is the clock used for request salts and signatures.
var now = time.Now

// YoudaoTranslator implements the Translator interface using the Youdao open API.
// The free tier is limited to 1k requests per hour, so results are cached forever.
type YoudaoTranslator struct {
	appID    string
	appKey   string
	endpoint string
	http     *resty.Client
	cache    *store.Store[Result]
	metrics  *MetricsCollector
	logger   *logrus.Logger
}

// NewYoudaoTranslator creates a Youdao translator from cfg.
func NewYoudaoTranslator(cfg Config) *YoudaoTranslator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultYoudaoURL
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &YoudaoTranslator{
		appID:    cfg.AppID,
		appKey:   cfg.AppKey,
		endpoint: cfg.Endpoint,
		http:     newHTTPClient(cfg),
		cache:    newCache(EngineYoudao, cfg.Storage),
		metrics:  NewMetricsCollector(string(EngineYoudao)),
		logger:   cfg.Logger,
	}
}

type youdaoResponse struct {
	ErrorCode   string   `json:"errorCode"`
	Translation []string `json:"translation"`
	Basic       *struct {
		Explains []string `json:"explains"`
	} `json:"basic"`
	Web []struct {
		Key   string   `json:"key"`
		Value []string `json:"value"`
	} `json:"web"`
}

// Name implements Translator.
func (y *YoudaoTranslator) Name() string { return string(EngineYoudao) }

// Request implements Translator.
func (y *YoudaoTranslator) Request(ctx context.Context, query string) (*Result, error) {
	return cachedRequest(query, y.cache, y.metrics, y.logger, func() (*Result, error) {
		return y.fetch(ctx, query)
	})
}

func (y *YoudaoTranslator) fetch(ctx context.Context, query string) (*Result, error) {
	t := now()
	salt := strconv.FormatInt(t.UnixMilli(), 10)
	curtime := strconv.FormatInt(t.Unix(), 10)

	y.logger.WithFields(logrus.Fields{
		"text_length": len(query),
	}).Debug("Translating text with Youdao")

	resp, err := y.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"from":     "auto",
			"to":       "en",
			"appKey":   y.appID,
			"salt":     salt,
			"sign":     youdaoSign(y.appID, query, salt, curtime, y.appKey),
			"signType": "v3",
			"curtime":  curtime,
			"q":        query,
		}).
		Post(y.endpoint)
	if err != nil {
		y.logger.WithError(err).WithFields(logrus.Fields{
			"url": y.endpoint,
		}).Warn("Youdao request failed")
		return nil, fmt.Errorf("youdao request: %w", err)
	}
	if resp.IsError() {
		y.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		}).Warn("Youdao returned non-OK status")
		return nil, fmt.Errorf("youdao: unexpected status %d", resp.StatusCode())
	}

	var data youdaoResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("youdao: decode response: %w", err)
	}
	if data.ErrorCode != "" && data.ErrorCode != "0" {
		y.logger.WithFields(logrus.Fields{
			"error_code": data.ErrorCode,
		}).Warn("Youdao returned an error code")
		return nil, fmt.Errorf("youdao: error code %s", data.ErrorCode)
	}

	var blob []string
	var explains string
	if data.Basic != nil && len(data.Basic.Explains) > 0 {
		explains = strings.Join(data.Basic.Explains, " ")
		blob = append(blob, explains)
	}
	for _, w := range data.Web {
		blob = append(blob, strings.Join(w.Value, " "))
	}

	translation := explains
	if len(data.Translation) > 0 {
		translation = FormatTranslation(data.Translation)
	}
	return &Result{
		Suggestion:  FormatSuggestion(strings.Join(blob, " ")),
		Translation: translation,
	}, nil
}

// youdaoSign computes the v3 signature sha256(appKey+input+salt+curtime+secret).
func youdaoSign(appID, query, salt, curtime, appKey string) string {
	return textutil.SHA256(appID + truncateQuery(query) + salt + curtime + appKey)
}

// truncateQuery shortens queries longer than 20 runes to
// first 10 runes + rune count + last 10 runes.
func truncateQuery(q string) string {
	runes := []rune(q)
	n := len(runes)
	if n <= 20 {
		return q
	}
	return string(runes[:10]) + strconv.Itoa(n) + string(runes[n-10:])
}
