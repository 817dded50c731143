// Package qwen provides Qwen chat models through the DashScope
// OpenAI-compatible mode.
package qwen

import (
	"errors"

	"github.com/ava-assistant/avamem-go/pkg/llm/openai"
)

const (
	// DefaultBaseURL is the DashScope compatible-mode endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	// DefaultModel is the chat model used when Config.Model is empty.
	DefaultModel = "qwen-plus"
)

// Config contains configuration for creating a Qwen LLM client.
type Config struct {
	// APIKey is the DashScope API key (required).
	APIKey string

	// Model is the model name to use (default: "qwen-plus").
	Model string

	// BaseURL is the API base URL (default: DashScope compatible mode).
	BaseURL string
}

// NewClient creates an llm.Provider for Qwen.
//
// Returns:
//   - *openai.Client: Client speaking the compatible-mode protocol
//   - error: Error if the API key is missing
func NewClient(cfg *Config) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("qwen llm: API key is required")
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
