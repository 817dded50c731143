// Package openai provides an llm.Provider for the OpenAI Chat Completions API
// and the compatible endpoints of DeepSeek and Qwen (DashScope compatible mode).
package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ava-assistant/avamem-go/pkg/llm"
)

// StructuredMode selects how GenerateStructured asks for JSON.
type StructuredMode string

const (
	// StructuredJSONSchema sends the schema with strict json_schema response format.
	StructuredJSONSchema StructuredMode = "json_schema"

	// StructuredJSONObject only asks for a JSON object; the schema is described
	// in the prompt. DeepSeek and Qwen support this mode only.
	StructuredJSONObject StructuredMode = "json_object"
)

// Client is an OpenAI LLM client.
// It implements the llm.Provider interface on top of the Chat Completions API.
type Client struct {
	client     *openai.Client
	model      string
	structured StructuredMode
}

// Config is the configuration for OpenAI LLM.
// APIKey: API key (required)
// Model: Model name to use, defaults to "gpt-4o-mini"
// BaseURL: API base URL, defaults to OpenAI official address
// StructuredMode: How to request JSON output, defaults to json_schema
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	StructuredMode StructuredMode
}

// NewClient creates a new OpenAI LLM client.
//
// Args:
//   - cfg: OpenAI configuration containing APIKey, Model, and BaseURL
//
// Returns:
//   - *Client: OpenAI client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai llm: API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	mode := cfg.StructuredMode
	if mode == "" {
		mode = StructuredJSONSchema
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		structured: mode,
	}, nil
}

// Generate generates text based on the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}
	return c.GenerateWithMessages(ctx, messages, opts...)
}

// GenerateWithMessages generates text using message history.
// Supports multi-turn conversations and accepts complete message history (including system, user, and assistant messages).
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return c.complete(ctx, c.buildRequest(messages, opts))
}

// GenerateStructured requests a JSON object matching schema.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema, opts ...llm.GenerateOption) (string, error) {
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}
	if c.structured == StructuredJSONObject {
		// json_object mode requires the word "json" somewhere in the messages.
		schemaJSON, err := schema.MarshalJSON()
		if err != nil {
			return "", err
		}
		messages = append([]llm.Message{{
			Role:    llm.RoleSystem,
			Content: "Respond with a single json object that matches this JSON Schema:\n" + string(schemaJSON),
		}}, messages...)
	}
	req := c.buildRequest(messages, opts)

	switch c.structured {
	case StructuredJSONObject:
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	default:
		name := schema.Name
		if name == "" {
			name = "response"
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        name,
				Description: schema.Description,
				Schema:      schema,
				Strict:      true,
			},
		}
	}

	return c.complete(ctx, req)
}

func (c *Client) buildRequest(messages []llm.Message, opts []llm.GenerateOption) openai.ChatCompletionRequest {
	options := llm.ApplyGenerateOptions(opts)

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		TopP:        float32(options.TopP),
		Stop:        options.Stop,
	}
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("llm generation failed: no choices returned from OpenAI API")
	}
	if resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the SDK client holds no resources.
func (c *Client) Close() error {
	return nil
}
