package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/store"
	"github.com/dasmlab/codelf/pkg/textutil"
)

// DefaultBaiduURL is the Baidu translate API endpoint.
const DefaultBaiduURL = "https://fanyi-api.baidu.com/api/trans/vip/translate"

// BaiduTranslator implements the Translator interface using the Baidu translate API.
type BaiduTranslator struct {
	appID    string
	key      string
	endpoint string
	http     *resty.Client
	cache    *store.Store[Result]
	metrics  *MetricsCollector
	logger   *logrus.Logger
}

// NewBaiduTranslator creates a Baidu translator from cfg.
func NewBaiduTranslator(cfg Config) *BaiduTranslator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultBaiduURL
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &BaiduTranslator{
		appID:    cfg.AppID,
		key:      cfg.AppKey,
		endpoint: cfg.Endpoint,
		http:     newHTTPClient(cfg),
		cache:    newCache(EngineBaidu, cfg.Storage),
		metrics:  NewMetricsCollector(string(EngineBaidu)),
		logger:   cfg.Logger,
	}
}

type baiduResponse struct {
	ErrorCode   any    `json:"error_code"`
	ErrorMsg    string `json:"error_msg"`
	TransResult []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"trans_result"`
}

// Name implements Translator.
func (b *BaiduTranslator) Name() string { return string(EngineBaidu) }

// Request implements Translator.
func (b *BaiduTranslator) Request(ctx context.Context, query string) (*Result, error) {
	return cachedRequest(query, b.cache, b.metrics, b.logger, func() (*Result, error) {
		return b.fetch(ctx, query)
	})
}

func (b *BaiduTranslator) fetch(ctx context.Context, query string) (*Result, error) {
	salt := strconv.FormatInt(now().UnixMilli(), 10)

	b.logger.WithFields(logrus.Fields{
		"text_length": len(query),
	}).Debug("Translating text with Baidu")

	resp, err := b.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from":  "auto",
			"to":    "en",
			"appid": b.appID,
			"salt":  salt,
			"q":     query,
			"sign":  textutil.MD5(b.appID + query + salt + b.key),
		}).
		Get(b.endpoint)
	if err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"url": b.endpoint,
		}).Warn("Baidu request failed")
		return nil, fmt.Errorf("baidu request: %w", err)
	}
	if resp.IsError() {
		b.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		}).Warn("Baidu returned non-OK status")
		return nil, fmt.Errorf("baidu: unexpected status %d", resp.StatusCode())
	}

	var data baiduResponse
	if err := json.Unmarshal(textutil.UnwrapJSONP(resp.Body()), &data); err != nil {
		return nil, fmt.Errorf("baidu: decode response: %w", err)
	}
	if len(data.TransResult) == 0 {
		b.logger.WithFields(logrus.Fields{
			"error_code": data.ErrorCode,
			"error_msg":  data.ErrorMsg,
		}).Warn("Baidu response carried no translation")
		return nil, fmt.Errorf("baidu: no trans_result (error %v: %s)", data.ErrorCode, data.ErrorMsg)
	}

	dst := make([]string, 0, len(data.TransResult))
	for _, tr := range data.TransResult {
		dst = append(dst, tr.Dst)
	}
	return &Result{
		Suggestion:  FormatSuggestion(strings.Join(dst, " ")),
		Translation: FormatTranslation(dst),
	}, nil
}
