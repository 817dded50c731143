package core_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-assistant/avamem-go/pkg/core"
)

// clearEnv unsets every variable LoadConfigFromEnv reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_API_KEY", "GEMINI_API_KEY", "LLM_MODEL", "LLM_BASE_URL",
		"EMBEDDING_PROVIDER", "EMBEDDING_API_KEY", "EMBEDDING_MODEL", "EMBEDDING_BASE_URL", "EMBEDDING_DIMS",
		"MEMORY_PROVIDER", "MEMORY_FILE", "MEMORY_TABLE", "SQLITE_PATH",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DATABASE", "POSTGRES_SSLMODE",
		"MYSQL_HOST", "MYSQL_PORT", "MYSQL_USER", "MYSQL_PASSWORD", "MYSQL_DATABASE",
		"MEMORY_THRESHOLD", "MEMORY_DIRECTIVE", "MEMORY_PERSONA", "REQUEST_TIMEOUT",
		"ELEVEN_API_KEY", "ELEVEN_VOICE_ID", "ELEVEN_MODEL_ID",
		"SERVER_ADDR", "STATIC_DIR", "SERVER_ALLOWED_ORIGINS", "SERVER_RATE_LIMIT", "SERVER_RATE_BURST", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
		_ = os.Unsetenv(key)
	}
	// Run from an empty directory so no .env file is picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "AIza-test")

	cfg, err := core.LoadConfigFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "AIza-test", cfg.LLM.APIKey)
	assert.Equal(t, "gemini", cfg.Embedder.Provider)
	assert.Equal(t, "AIza-test", cfg.Embedder.APIKey)
	assert.Equal(t, "json", cfg.Store.Provider)
	assert.Equal(t, core.DefaultMemoryFile, cfg.Store.File)
	assert.Equal(t, 0.55, cfg.Memory.Threshold)
	assert.Equal(t, "/save ", cfg.Memory.Directive)
	assert.Equal(t, core.DefaultPersona, cfg.Memory.Persona)
	assert.Equal(t, 30*time.Second, cfg.Memory.Timeout())
	assert.Equal(t, core.DefaultVoiceID, cfg.TTS.VoiceID)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, core.DefaultLogFile, cfg.Log.File)
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_API_KEY", "sk-ant")
	t.Setenv("MEMORY_PROVIDER", "postgres")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("MEMORY_THRESHOLD", "0.7")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("EMBEDDING_DIMS", "128")

	cfg, err := core.LoadConfigFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "hash", cfg.Embedder.Provider, "anthropic has no embedding API")
	assert.Equal(t, 128, cfg.Embedder.Dimensions)
	assert.Equal(t, "postgres", cfg.Store.Provider)
	assert.Equal(t, 6543, cfg.Store.Port)
	assert.Equal(t, "localhost", cfg.Store.Host)
	assert.Equal(t, 0.7, cfg.Memory.Threshold)
	assert.Equal(t, 5*time.Second, cfg.Memory.Timeout())
}

func TestLoadConfigFromEnvServer(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://localhost:3000, ,http://127.0.0.1:5000")
	t.Setenv("SERVER_RATE_LIMIT", "2.5")

	cfg, err := core.LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:5000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, 5, cfg.Server.RateBurst)
}

func TestLoadConfigFromEnvBadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMBEDDING_DIMS", "many")

	_, err := core.LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ava.env")
	require.NoError(t, os.WriteFile(path, []byte("LLM_PROVIDER=ollama\nLLM_MODEL=llama3.1\n"), 0644))

	cfg, err := core.LoadConfigFromEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)
	assert.Equal(t, "ollama", cfg.Embedder.Provider)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avamem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  api_key: sk-test
  model: gpt-4o-mini
store:
  provider: sqlite
  sqlite_path: ./data/ava.db
memory:
  threshold: 0.6
  request_timeout: 10s
log:
  level: debug
  format: json
`), 0644))

	cfg, err := core.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, "sk-test", cfg.Embedder.APIKey)
	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, "./data/ava.db", cfg.Store.SQLitePath)
	assert.Equal(t, 0.6, cfg.Memory.Threshold)
	assert.Equal(t, 10*time.Second, cfg.Memory.Timeout())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/save ", cfg.Memory.Directive)
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avamem.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"llm": {"provider": "qwen", "api_key": "sk-dash"},
		"embedder": {"provider": "qwen", "dimensions": 1024},
		"store": {"provider": "mysql", "host": "db", "port": 3306, "database": "ava"}
	}`), 0644))

	cfg, err := core.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "qwen", cfg.LLM.Provider)
	assert.Equal(t, "sk-dash", cfg.Embedder.APIKey)
	assert.Equal(t, 1024, cfg.Embedder.Dimensions)
	assert.Equal(t, "mysql", cfg.Store.Provider)

	_, err = core.LoadConfigFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *core.Config {
		cfg := &core.Config{}
		cfg.ApplyDefaults()
		return cfg
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*core.Config)
	}{
		{"unknown llm", func(c *core.Config) { c.LLM.Provider = "cohere" }},
		{"unknown embedder", func(c *core.Config) { c.Embedder.Provider = "anthropic" }},
		{"unknown store", func(c *core.Config) { c.Store.Provider = "redis" }},
		{"threshold too high", func(c *core.Config) { c.Memory.Threshold = 1 }},
		{"blank directive", func(c *core.Config) { c.Memory.Directive = "  " }},
		{"negative rate limit", func(c *core.Config) { c.Server.RateLimit = -1 }},
		{"bad timeout", func(c *core.Config) { c.Memory.RequestTimeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
		})
	}
}

func TestMemoryConfigTimeout(t *testing.T) {
	assert.Equal(t, core.DefaultRequestTimeout, core.MemoryConfig{}.Timeout())
	assert.Equal(t, core.DefaultRequestTimeout, core.MemoryConfig{RequestTimeout: "-1s"}.Timeout())
	assert.Equal(t, time.Minute, core.MemoryConfig{RequestTimeout: "1m"}.Timeout())
}

func TestFindEnvFile(t *testing.T) {
	clearEnv(t)
	dir, err := os.Getwd()
	require.NoError(t, err)

	_, found := core.FindEnvFile()
	assert.False(t, found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LLM_PROVIDER=openai\n"), 0644))
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.Chdir(sub))

	path, found := core.FindEnvFile()
	assert.True(t, found)
	assert.Equal(t, filepath.Join(dir, ".env"), path)
}
