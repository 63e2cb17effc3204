// Package config loads codelf settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dasmlab/codelf/pkg/codelf"
	"github.com/dasmlab/codelf/pkg/searchcode"
	"github.com/dasmlab/codelf/pkg/store"
	"github.com/dasmlab/codelf/pkg/translate"
)

// Config represents the complete codelf configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Translator TranslatorConfig `yaml:"translator"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
}

// TranslatorConfig configures the translation backends. A backend is only
// enabled when its credentials are set.
type TranslatorConfig struct {
	Youdao  CredentialConfig `yaml:"youdao"`
	Baidu   CredentialConfig `yaml:"baidu"`
	Bing    BingConfig       `yaml:"bing"`
	Proxy   string           `yaml:"proxy"`
	Timeout time.Duration    `yaml:"timeout"`
}

// CredentialConfig holds an app id / key pair.
type CredentialConfig struct {
	AppID    string `yaml:"app_id"`
	AppKey   string `yaml:"app_key"`
	Endpoint string `yaml:"endpoint"`
}

// BingConfig holds Microsoft Translator settings.
type BingConfig struct {
	Key      string `yaml:"key"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// SearchConfig configures the code search client.
type SearchConfig struct {
	Endpoint string        `yaml:"endpoint"`
	PerPage  int           `yaml:"per_page"`
	Proxy    string        `yaml:"proxy"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig selects the storage behind every cache.
type CacheConfig struct {
	// Type is memory, lru or sqlite.
	Type string `yaml:"type"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// Size bounds the LRU storage.
	Size int `yaml:"size"`
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	GRPCPort  int           `yaml:"grpc_port"`
	HTTPPort  int           `yaml:"http_port"`
	JobMaxAge time.Duration `yaml:"job_max_age"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Translator: TranslatorConfig{
			Timeout: translate.DefaultTimeout,
		},
		Search: SearchConfig{
			Endpoint: searchcode.DefaultURL,
			PerPage:  searchcode.DefaultPerPage,
			Timeout:  searchcode.DefaultTimeout,
		},
		Cache: CacheConfig{
			Type: string(store.TypeMemory),
			Path: "codelf.db",
			Size: store.DefaultLRUSize,
		},
		Server: ServerConfig{
			GRPCPort:  50051,
			HTTPPort:  8080,
			JobMaxAge: time.Hour,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// No config file is fine - use defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODELF_YOUDAO_APP_ID"); v != "" {
		c.Translator.Youdao.AppID = v
	}
	if v := os.Getenv("CODELF_YOUDAO_APP_KEY"); v != "" {
		c.Translator.Youdao.AppKey = v
	}
	if v := os.Getenv("CODELF_BAIDU_APP_ID"); v != "" {
		c.Translator.Baidu.AppID = v
	}
	if v := os.Getenv("CODELF_BAIDU_APP_KEY"); v != "" {
		c.Translator.Baidu.AppKey = v
	}
	if v := os.Getenv("CODELF_BING_KEY"); v != "" {
		c.Translator.Bing.Key = v
	}
	if v := os.Getenv("CODELF_BING_REGION"); v != "" {
		c.Translator.Bing.Region = v
	}
	// One proxy for every outbound call
	if v := os.Getenv("CODELF_PROXY"); v != "" {
		c.Translator.Proxy = v
		c.Search.Proxy = v
	}
	if v := os.Getenv("CODELF_CACHE_TYPE"); v != "" {
		c.Cache.Type = v
	}
	if v := os.Getenv("CODELF_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("CODELF_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := store.ParseType(c.Cache.Type); err != nil {
		return fmt.Errorf("cache.type: %w", err)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must be non-negative, got %d", c.Cache.Size)
	}
	if c.Search.PerPage < 0 {
		return fmt.Errorf("search.per_page must be non-negative, got %d", c.Search.PerPage)
	}
	if c.Translator.Timeout < 0 || c.Search.Timeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if err := validatePair("translator.youdao", c.Translator.Youdao); err != nil {
		return err
	}
	if err := validatePair("translator.baidu", c.Translator.Baidu); err != nil {
		return err
	}
	for name, port := range map[string]int{"server.grpc_port": c.Server.GRPCPort, "server.http_port": c.Server.HTTPPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%s must be between 0 and 65535, got %d", name, port)
		}
	}
	return nil
}

// validatePair rejects half-configured credentials.
func validatePair(section string, cred CredentialConfig) error {
	if (cred.AppID == "") != (cred.AppKey == "") {
		return fmt.Errorf("%s: app_id and app_key must be set together", section)
	}
	return nil
}

// Translators returns one translator config per configured backend, in
// rotation priority order: Youdao, Baidu, Bing.
func (c *Config) Translators() []translate.Config {
	t := c.Translator
	var out []translate.Config
	if t.Youdao.AppID != "" && t.Youdao.AppKey != "" {
		out = append(out, translate.Config{
			Engine:   translate.EngineYoudao,
			AppID:    t.Youdao.AppID,
			AppKey:   t.Youdao.AppKey,
			Endpoint: t.Youdao.Endpoint,
			Proxy:    t.Proxy,
			Timeout:  t.Timeout,
		})
	}
	if t.Baidu.AppID != "" && t.Baidu.AppKey != "" {
		out = append(out, translate.Config{
			Engine:   translate.EngineBaidu,
			AppID:    t.Baidu.AppID,
			AppKey:   t.Baidu.AppKey,
			Endpoint: t.Baidu.Endpoint,
			Proxy:    t.Proxy,
			Timeout:  t.Timeout,
		})
	}
	if t.Bing.Key != "" {
		out = append(out, translate.Config{
			Engine:   translate.EngineBing,
			AppKey:   t.Bing.Key,
			Region:   t.Bing.Region,
			Endpoint: t.Bing.Endpoint,
			Proxy:    t.Proxy,
			Timeout:  t.Timeout,
		})
	}
	return out
}

// ClientConfig builds the codelf client configuration. The cache storage is
// opened here and falls back to memory when it cannot be opened.
func (c *Config) ClientConfig(logger *logrus.Logger) codelf.Config {
	if logger == nil {
		logger = logrus.New()
	}
	cacheType, err := store.ParseType(c.Cache.Type)
	if err != nil {
		// store.Open warns and falls back to memory
		cacheType = store.Type(c.Cache.Type)
	}

	return codelf.Config{
		Translators: c.Translators(),
		Search: searchcode.Options{
			Endpoint: c.Search.Endpoint,
			PerPage:  c.Search.PerPage,
			Proxy:    c.Search.Proxy,
			Timeout:  c.Search.Timeout,
		},
		Storage: store.Open(store.Config{
			Type: cacheType,
			Path: c.Cache.Path,
			Size: c.Cache.Size,
		}, logger),
		Logger: logger,
	}
}

// String summarizes the configuration without secrets.
func (c *Config) String() string {
	var engines []string
	for _, t := range c.Translators() {
		engines = append(engines, string(t.Engine))
	}
	return fmt.Sprintf("translators=[%s] cache=%s search=%s", strings.Join(engines, ","), c.Cache.Type, c.Search.Endpoint)
}
