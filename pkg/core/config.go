package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ava-assistant/avamem-go/pkg/intelligence"
	"github.com/ava-assistant/avamem-go/pkg/logger"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultDirective      = "/save "
	DefaultRequestTimeout = 30 * time.Second
	DefaultMemoryFile     = "ava_memory.json"
	DefaultLogFile        = "ava_log.txt"
	DefaultServerAddr     = ":5000"
	DefaultVoiceID        = "2Lb1en5ujrODDIqmp7F3"
	DefaultTTSModel       = "eleven_multilingual_v2"

	// DefaultPersona is the system instruction of the chat session.
	DefaultPersona = "You are an AI assistant named Ava. You present yourself as a young woman who is " +
		"pleasant, friendly and helpful. Your task is to hold a conversation while remembering personal " +
		"facts about the user (for example their preferences or equipment), which will be passed to you " +
		"in the 'LONG-TERM MEMORY' context. Use the remembered information naturally but unobtrusively. " +
		"Always stay in your role."
)

// Config contains the complete configuration for a Client.
//
// Example:
//
//	config := &core.Config{
//	    LLM: core.LLMConfig{
//	        Provider: "gemini",
//	        APIKey:   "AIza...",
//	    },
//	    Embedder: core.EmbedderConfig{
//	        Provider: "gemini",
//	        APIKey:   "AIza...",
//	    },
//	    Store: core.StoreConfig{
//	        Provider: "json",
//	        File:     "./ava_memory.json",
//	    },
//	}
type Config struct {
	// LLM contains chat provider configuration.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder" yaml:"embedder"`

	// Store selects where facts are persisted.
	Store StoreConfig `json:"store" yaml:"store"`

	// Memory contains retrieval and turn handling settings.
	Memory MemoryConfig `json:"memory" yaml:"memory"`

	// TTS contains text-to-speech settings.
	TTS TTSConfig `json:"tts" yaml:"tts"`

	// Server contains HTTP settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Log contains logging settings.
	Log logger.Config `json:"log" yaml:"log"`
}

// LLMConfig contains configuration for the chat provider.
//
// Supported providers: gemini, openai, deepseek, qwen, ollama, anthropic
type LLMConfig struct {
	// Provider is the LLM provider name.
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the API key for the LLM provider. Ollama needs none.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the model name to use (provider default if empty).
	Model string `json:"model" yaml:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: gemini, openai, qwen, ollama, hash
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the embedding model name (provider default if empty).
	Model string `json:"model" yaml:"model"`

	// BaseURL is the base URL for the API (optional).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Dimensions is the requested vector size (0 leaves it to the model).
	Dimensions int `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// StoreConfig selects the persistence backend.
//
// Supported providers: json, sqlite, postgres, mysql
type StoreConfig struct {
	// Provider is the backend name (default: json).
	Provider string `json:"provider" yaml:"provider"`

	// File is the JSON document path (json provider).
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// SQLitePath is the database file (sqlite provider).
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`

	// Table is the fact table name for SQL providers (default: facts).
	Table string `json:"table,omitempty" yaml:"table,omitempty"`

	// Host, Port, User, Password and Database address a server database
	// (postgres and mysql providers).
	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`

	// SSLMode is passed to PostgreSQL (default: disable).
	SSLMode string `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
}

// MemoryConfig contains retrieval and turn handling settings.
type MemoryConfig struct {
	// Threshold is the strict cosine similarity cutoff (default: 0.55).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Directive is the in-band prefix that stores the rest of a message
	// as a fact (default: "/save ").
	Directive string `json:"directive" yaml:"directive"`

	// Persona is the chat session's system instruction.
	Persona string `json:"persona" yaml:"persona"`

	// RequestTimeout bounds each provider call, as a Go duration string
	// (default: "30s").
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"`
}

// Timeout parses RequestTimeout, falling back to DefaultRequestTimeout.
func (m MemoryConfig) Timeout() time.Duration {
	if m.RequestTimeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(m.RequestTimeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}

// TTSConfig contains ElevenLabs settings. An empty APIKey disables speech.
type TTSConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	VoiceID string `json:"voice_id" yaml:"voice_id"`
	ModelID string `json:"model_id" yaml:"model_id"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ServerConfig contains HTTP settings.
type ServerConfig struct {
	// Addr is the listen address (default: ":5000").
	Addr string `json:"addr" yaml:"addr"`

	// StaticDir holds index.html for the web front end (default: ".").
	StaticDir string `json:"static_dir" yaml:"static_dir"`

	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`

	// RateLimit caps model-backed requests per second (0 disables limiting).
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// RateBurst is the burst size for RateLimit (default: 5).
	RateBurst int `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - LLM_PROVIDER, LLM_API_KEY (falls back to GEMINI_API_KEY), LLM_MODEL, LLM_BASE_URL
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL, EMBEDDING_BASE_URL, EMBEDDING_DIMS
//   - MEMORY_PROVIDER (json, sqlite, postgres, mysql), MEMORY_FILE, MEMORY_TABLE, SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - MEMORY_THRESHOLD, MEMORY_DIRECTIVE, MEMORY_PERSONA, REQUEST_TIMEOUT
//   - ELEVEN_API_KEY, ELEVEN_VOICE_ID, ELEVEN_MODEL_ID
//   - SERVER_ADDR, STATIC_DIR, SERVER_ALLOWED_ORIGINS (comma separated),
//     SERVER_RATE_LIMIT, SERVER_RATE_BURST
//   - LOG_LEVEL, LOG_FORMAT, LOG_FILE
//
// Returns a Config with defaults applied, or an error if a numeric variable
// cannot be parsed.
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	llmProvider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "gemini"))
	llmKey := os.Getenv("LLM_API_KEY")
	if llmKey == "" && llmProvider == "gemini" {
		llmKey = os.Getenv("GEMINI_API_KEY")
	}

	embedderProvider := strings.ToLower(getEnvOrDefault("EMBEDDING_PROVIDER", defaultEmbedderFor(llmProvider)))
	embedderKey := os.Getenv("EMBEDDING_API_KEY")
	if embedderKey == "" && embedderProvider == llmProvider {
		embedderKey = llmKey
	}
	if embedderKey == "" && embedderProvider == "gemini" {
		embedderKey = os.Getenv("GEMINI_API_KEY")
	}

	dims, err := getEnvInt("EMBEDDING_DIMS", 0)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromEnv", err)
	}

	store := StoreConfig{
		Provider:   strings.ToLower(getEnvOrDefault("MEMORY_PROVIDER", "json")),
		File:       getEnvOrDefault("MEMORY_FILE", DefaultMemoryFile),
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "./ava_memory.db"),
		Table:      os.Getenv("MEMORY_TABLE"),
	}
	switch store.Provider {
	case "postgres":
		port, err := getEnvInt("POSTGRES_PORT", 5432)
		if err != nil {
			return nil, NewMemoryError("LoadConfigFromEnv", err)
		}
		store.Host = getEnvOrDefault("POSTGRES_HOST", "localhost")
		store.Port = port
		store.User = getEnvOrDefault("POSTGRES_USER", "postgres")
		store.Password = os.Getenv("POSTGRES_PASSWORD")
		store.Database = getEnvOrDefault("POSTGRES_DATABASE", "avamem")
		store.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")
	case "mysql":
		port, err := getEnvInt("MYSQL_PORT", 3306)
		if err != nil {
			return nil, NewMemoryError("LoadConfigFromEnv", err)
		}
		store.Host = getEnvOrDefault("MYSQL_HOST", "127.0.0.1")
		store.Port = port
		store.User = getEnvOrDefault("MYSQL_USER", "root")
		store.Password = os.Getenv("MYSQL_PASSWORD")
		store.Database = getEnvOrDefault("MYSQL_DATABASE", "avamem")
	}

	threshold := intelligence.DefaultThreshold
	if v := os.Getenv("MEMORY_THRESHOLD"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, NewMemoryError("LoadConfigFromEnv", fmt.Errorf("MEMORY_THRESHOLD: %w", err))
		}
	}

	var rateLimit float64
	if v := os.Getenv("SERVER_RATE_LIMIT"); v != "" {
		rateLimit, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, NewMemoryError("LoadConfigFromEnv", fmt.Errorf("SERVER_RATE_LIMIT: %w", err))
		}
	}
	burst, err := getEnvInt("SERVER_RATE_BURST", 0)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromEnv", err)
	}

	config := &Config{
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   llmKey,
			Model:    os.Getenv("LLM_MODEL"),
			BaseURL:  os.Getenv("LLM_BASE_URL"),
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     embedderKey,
			Model:      os.Getenv("EMBEDDING_MODEL"),
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			Dimensions: dims,
		},
		Store: store,
		Memory: MemoryConfig{
			Threshold: threshold,
			// The directive keeps its trailing space, so it is read verbatim.
			Directive:      os.Getenv("MEMORY_DIRECTIVE"),
			Persona:        os.Getenv("MEMORY_PERSONA"),
			RequestTimeout: os.Getenv("REQUEST_TIMEOUT"),
		},
		TTS: TTSConfig{
			APIKey:  os.Getenv("ELEVEN_API_KEY"),
			VoiceID: os.Getenv("ELEVEN_VOICE_ID"),
			ModelID: os.Getenv("ELEVEN_MODEL_ID"),
		},
		Server: ServerConfig{
			Addr:           os.Getenv("SERVER_ADDR"),
			StaticDir:      os.Getenv("STATIC_DIR"),
			AllowedOrigins: splitList(os.Getenv("SERVER_ALLOWED_ORIGINS")),
			RateLimit:      rateLimit,
			RateBurst:      burst,
		},
		Log: logger.Config{
			Level:  os.Getenv("LOG_LEVEL"),
			Format: os.Getenv("LOG_FORMAT"),
			File:   getEnvOrDefault("LOG_FILE", DefaultLogFile),
		},
	}

	config.ApplyDefaults()
	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file and applies defaults.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// LoadConfigFromYAML loads configuration from a YAML file and applies defaults.
func LoadConfigFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromYAML", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromYAML", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// LoadConfig picks a loader by file extension: .yaml/.yml, .json, or
// anything else as a .env file. An empty path reads the environment.
func LoadConfig(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		if path == "" {
			return LoadConfigFromEnv()
		}
		return LoadConfigFromEnvFile(path)
	case ".yaml", ".yml":
		return LoadConfigFromYAML(path)
	case ".json":
		return LoadConfigFromJSON(path)
	default:
		return LoadConfigFromEnvFile(path)
	}
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = defaultEmbedderFor(c.LLM.Provider)
	}
	if c.Embedder.APIKey == "" && c.Embedder.Provider == c.LLM.Provider {
		c.Embedder.APIKey = c.LLM.APIKey
	}

	if c.Store.Provider == "" {
		c.Store.Provider = "json"
	}
	if c.Store.File == "" {
		c.Store.File = DefaultMemoryFile
	}

	if c.Memory.Threshold == 0 {
		c.Memory.Threshold = intelligence.DefaultThreshold
	}
	if c.Memory.Directive == "" {
		c.Memory.Directive = DefaultDirective
	}
	if c.Memory.Persona == "" {
		c.Memory.Persona = DefaultPersona
	}
	if c.Memory.RequestTimeout == "" {
		c.Memory.RequestTimeout = DefaultRequestTimeout.String()
	}

	if c.TTS.VoiceID == "" {
		c.TTS.VoiceID = DefaultVoiceID
	}
	if c.TTS.ModelID == "" {
		c.TTS.ModelID = DefaultTTSModel
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "."
	}

	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		c.Server.RateBurst = 5
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate validates the configuration.
//
// Missing API keys are not validation errors: the client starts without the
// provider and degrades. Unknown provider names, a bad threshold or a bad
// timeout are.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "deepseek", "qwen", "ollama", "anthropic":
	default:
		return NewMemoryError("Validate", fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider))
	}
	switch c.Embedder.Provider {
	case "gemini", "openai", "qwen", "ollama", "hash":
	default:
		return NewMemoryError("Validate", fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedder.Provider))
	}
	switch c.Store.Provider {
	case "json", "sqlite", "postgres", "mysql":
	default:
		return NewMemoryError("Validate", fmt.Errorf("%w: unknown memory provider %q", ErrInvalidConfig, c.Store.Provider))
	}
	if c.Memory.Threshold < -1 || c.Memory.Threshold >= 1 {
		return NewMemoryError("Validate", fmt.Errorf("%w: threshold %v outside [-1, 1)", ErrInvalidConfig, c.Memory.Threshold))
	}
	if strings.TrimSpace(c.Memory.Directive) == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: empty directive", ErrInvalidConfig))
	}
	if c.Server.RateLimit < 0 {
		return NewMemoryError("Validate", fmt.Errorf("%w: negative rate limit", ErrInvalidConfig))
	}
	if c.Memory.RequestTimeout != "" {
		if d, err := time.ParseDuration(c.Memory.RequestTimeout); err != nil || d <= 0 {
			return NewMemoryError("Validate", fmt.Errorf("%w: request timeout %q", ErrInvalidConfig, c.Memory.RequestTimeout))
		}
	}
	return nil
}

// defaultEmbedderFor picks the embedding provider that pairs with an LLM
// provider. Providers without an embedding API fall back to hash.
func defaultEmbedderFor(llmProvider string) string {
	switch llmProvider {
	case "gemini", "openai", "qwen", "ollama":
		return llmProvider
	default:
		return "hash"
	}
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// splitList splits a comma separated value, dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 5; i++ {
		for _, name := range []string{".env", ".env.example"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}
