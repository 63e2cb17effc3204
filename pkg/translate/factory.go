package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/store"
)

// EngineType represents a translation provider.
type EngineType string

const (
	// EngineYoudao uses the Youdao open API (form POST, SHA-256 v3 signature).
	EngineYoudao EngineType = "youdao"
	// EngineBaidu uses the Baidu translate API (GET, MD5 signature).
	EngineBaidu EngineType = "baidu"
	// EngineBing uses the Microsoft Translator v3 API (subscription key header).
	EngineBing EngineType = "bing"
)

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation provider to use.
	Engine EngineType
	// AppID is the Youdao app id or the Baidu appid. Unused by Bing.
	AppID string
	// AppKey is the Youdao app key, the Baidu secret or the Bing subscription key.
	AppKey string
	// Region is the optional Bing resource region.
	Region string
	// Endpoint overrides the provider URL.
	Endpoint string
	// Proxy is an optional proxy URL for provider calls.
	Proxy string
	// Timeout bounds each provider call. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Storage backs the engine's private cache. Nil means a fresh memory storage.
	Storage store.Storage
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a new Translator instance based on the configuration.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"endpoint": cfg.Endpoint,
		"proxy":    cfg.Proxy != "",
	}).Debug("Creating translator instance")

	switch cfg.Engine {
	case EngineYoudao:
		if cfg.AppID == "" || cfg.AppKey == "" {
			return nil, fmt.Errorf("youdao translator requires app id and app key")
		}
		return NewYoudaoTranslator(cfg), nil
	case EngineBaidu:
		if cfg.AppID == "" || cfg.AppKey == "" {
			return nil, fmt.Errorf("baidu translator requires app id and key")
		}
		return NewBaiduTranslator(cfg), nil
	case EngineBing:
		if cfg.AppKey == "" {
			return nil, fmt.Errorf("bing translator requires a subscription key")
		}
		return NewBingTranslator(cfg), nil
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}
}

// ParseEngineType parses a string into an EngineType.
// Returns an error if the string is not a valid engine type.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "youdao":
		return EngineYoudao, nil
	case "baidu":
		return EngineBaidu, nil
	case "bing":
		return EngineBing, nil
	default:
		return "", fmt.Errorf("unknown engine type: %s (supported: youdao, baidu, bing)", s)
	}
}
