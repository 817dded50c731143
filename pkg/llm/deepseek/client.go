// Package deepseek provides DeepSeek chat models through their
// OpenAI-compatible endpoint.
package deepseek

import (
	"errors"

	"github.com/ava-assistant/avamem-go/pkg/llm/openai"
)

const (
	// DefaultBaseURL is the DeepSeek API endpoint.
	DefaultBaseURL = "https://api.deepseek.com"

	// DefaultModel is the chat model used when Config.Model is empty.
	DefaultModel = "deepseek-chat"
)

// Config contains configuration for creating a DeepSeek client.
type Config struct {
	// APIKey is the DeepSeek API key (required).
	APIKey string

	// Model is the model name to use (default: "deepseek-chat").
	Model string

	// BaseURL is the API base URL (default: DeepSeek official address).
	BaseURL string
}

// NewClient creates an llm.Provider for DeepSeek.
//
// DeepSeek does not accept json_schema response formats, so structured
// output is requested as a plain JSON object with the schema in the prompt.
func NewClient(cfg *Config) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("deepseek llm: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return openai.NewClient(&openai.Config{
		APIKey:         cfg.APIKey,
		Model:          model,
		BaseURL:        baseURL,
		StructuredMode: openai.StructuredJSONObject,
	})
}
