// Package ollama provides an llm.Provider backed by a local or remote Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	olla "github.com/ollama/ollama/api"

	"github.com/ava-assistant/avamem-go/pkg/llm"
)

// Client is an Ollama LLM client.
// It implements the llm.Provider interface on top of the /api/chat endpoint.
type Client struct {
	client *olla.Client
	model  string
}

// Config is the configuration for Ollama LLM.
// Model: Model name to use, defaults to "llama3.1"
// BaseURL: Ollama service address, defaults to "http://localhost:11434"
// HTTPClient: Custom HTTP client, if nil uses default client (120 seconds timeout)
type Config struct {
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Ollama LLM client.
//
// Args:
//   - cfg: Ollama configuration containing Model and BaseURL
//
// Returns:
//   - *Client: Ollama client instance
//   - error: Returns an error if the base URL is invalid
func NewClient(cfg *Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}

	hc := cfg.HTTPClient
	if hc == nil {
		// Local models can be slow to load on first use.
		hc = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		client: olla.NewClient(parsedURL, hc),
		model:  model,
	}, nil
}

// Generate generates text based on the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return c.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// GenerateWithMessages generates text using message history.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return c.chat(ctx, messages, nil, opts)
}

// GenerateStructured passes the JSON schema as the chat "format" so the
// model is constrained to a matching object.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema, opts ...llm.GenerateOption) (string, error) {
	format, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return c.chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, format, opts)
}

func (c *Client) chat(ctx context.Context, messages []llm.Message, format json.RawMessage, opts []llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	chatMessages := make([]olla.Message, len(messages))
	for i, msg := range messages {
		chatMessages[i] = olla.Message{Role: msg.Role, Content: msg.Content}
	}

	params := map[string]interface{}{
		"temperature": options.Temperature,
		"top_p":       options.TopP,
	}
	if options.MaxTokens > 0 {
		params["num_predict"] = options.MaxTokens
	}
	if len(options.Stop) > 0 {
		params["stop"] = options.Stop
	}

	stream := false
	req := &olla.ChatRequest{
		Model:    c.model,
		Messages: chatMessages,
		Stream:   &stream,
		Format:   format,
		Options:  params,
	}

	var result *olla.ChatResponse
	err := c.client.Chat(ctx, req, func(resp olla.ChatResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}

	if result == nil || result.Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}
	return result.Message.Content, nil
}

// Close is a no-op for the HTTP client.
func (c *Client) Close() error {
	return nil
}
