package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/codelf/pkg/searchcode"
	"github.com/dasmlab/codelf/pkg/store"
	"github.com/dasmlab/codelf/pkg/translate"
)

var envKeys = []string{
	"CODELF_YOUDAO_APP_ID", "CODELF_YOUDAO_APP_KEY",
	"CODELF_BAIDU_APP_ID", "CODELF_BAIDU_APP_KEY",
	"CODELF_BING_KEY", "CODELF_BING_REGION",
	"CODELF_PROXY", "CODELF_CACHE_TYPE", "CODELF_CACHE_PATH", "CODELF_LOG_LEVEL",
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codelf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.NoError(t, cfg.Validate())
		assert.Empty(t, cfg.Translators())
	}

	cfg := Default()
	assert.Equal(t, searchcode.DefaultURL, cfg.Search.Endpoint)
	assert.Equal(t, 42, cfg.Search.PerPage)
	assert.Equal(t, "memory", cfg.Cache.Type)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
log_level: debug
translator:
  youdao:
    app_id: yid
    app_key: ykey
  bing:
    key: bkey
    region: eastasia
  timeout: 3s
search:
  per_page: 10
cache:
  type: lru
  size: 16
server:
  http_port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Translator.Timeout)
	assert.Equal(t, 10, cfg.Search.PerPage)
	assert.Equal(t, searchcode.DefaultURL, cfg.Search.Endpoint)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 50051, cfg.Server.GRPCPort)

	translators := cfg.Translators()
	require.Len(t, translators, 2)
	assert.Equal(t, translate.EngineYoudao, translators[0].Engine)
	assert.Equal(t, "yid", translators[0].AppID)
	assert.Equal(t, 3*time.Second, translators[0].Timeout)
	assert.Equal(t, translate.EngineBing, translators[1].Engine)
	assert.Equal(t, "eastasia", translators[1].Region)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "translator: [unclosed"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CODELF_BAIDU_APP_ID", "bid")
	t.Setenv("CODELF_BAIDU_APP_KEY", "bkey")
	t.Setenv("CODELF_PROXY", "http://proxy:3128")
	t.Setenv("CODELF_CACHE_TYPE", "sqlite")
	t.Setenv("CODELF_CACHE_PATH", "/tmp/x.db")
	t.Setenv("CODELF_LOG_LEVEL", "warn")

	cfg, err := Load(writeFile(t, "log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Cache.Type)
	assert.Equal(t, "/tmp/x.db", cfg.Cache.Path)
	assert.Equal(t, "http://proxy:3128", cfg.Search.Proxy)

	translators := cfg.Translators()
	require.Len(t, translators, 1)
	assert.Equal(t, translate.EngineBaidu, translators[0].Engine)
	assert.Equal(t, "http://proxy:3128", translators[0].Proxy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad cache type", func(c *Config) { c.Cache.Type = "redis" }},
		{"negative cache size", func(c *Config) { c.Cache.Size = -1 }},
		{"negative per page", func(c *Config) { c.Search.PerPage = -1 }},
		{"negative timeout", func(c *Config) { c.Translator.Timeout = -time.Second }},
		{"half youdao", func(c *Config) { c.Translator.Youdao.AppID = "id" }},
		{"half baidu", func(c *Config) { c.Translator.Baidu.AppKey = "key" }},
		{"bad port", func(c *Config) { c.Server.HTTPPort = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestClientConfig(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := Default()
	cfg.Translator.Bing.Key = "k"
	cfg.Cache.Type = "sqlite"
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")

	cc := cfg.ClientConfig(logger)
	require.Len(t, cc.Translators, 1)
	assert.IsType(t, &store.SQLiteStorage{}, cc.Storage)
	assert.Equal(t, 42, cc.Search.PerPage)
	assert.Same(t, logger, cc.Logger)

	cfg.Cache.Type = "redis"
	assert.IsType(t, &store.MemoryStorage{}, cfg.ClientConfig(logger).Storage)
}

func TestString(t *testing.T) {
	cfg := Default()
	cfg.Translator.Bing.Key = "secret"
	s := cfg.String()
	assert.Contains(t, s, "bing")
	assert.NotContains(t, s, "secret")
}
