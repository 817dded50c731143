// Package anthropic provides an llm.Provider backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ava-assistant/avamem-go/pkg/llm"
)

// defaultMaxTokens is sent when the caller sets no cap; the Messages API requires one.
const defaultMaxTokens = 1024

// Client is an Anthropic LLM client.
// It implements the llm.Provider interface with the official Go SDK.
type Client struct {
	client anthropic.Client
	model  string
}

// Config is the configuration for Anthropic LLM.
// APIKey: Anthropic API key (required)
// Model: Model name to use, defaults to "claude-3-5-sonnet-20240620"
// BaseURL: API base URL, defaults to "https://api.anthropic.com"
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new Anthropic LLM client.
//
// Args:
//   - cfg: Anthropic configuration containing APIKey, Model, and BaseURL
//
// Returns:
//   - *Client: Anthropic client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic llm: API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}

	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate generates text based on the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return c.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// GenerateWithMessages generates text using message history.
// The Messages API takes the system prompt out of band, so system messages
// are separated from the turns.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	params := c.buildParams(messages, opts)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("llm generation failed: no content returned from Anthropic API")
	}
	return b.String(), nil
}

// GenerateStructured forces a single tool call whose input schema is schema
// and returns the tool input as JSON.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema, opts ...llm.GenerateOption) (string, error) {
	params := c.buildParams([]llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts)

	name := schema.Name
	if name == "" {
		name = "respond"
	}
	properties, _ := schema.JSONSchema()["properties"].(map[string]interface{})

	tool := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
		Properties: properties,
		Required:   schema.Required,
	}, name)
	if schema.Description != "" {
		tool.OfTool.Description = anthropic.String(schema.Description)
	}
	params.Tools = []anthropic.ToolUnionParam{tool}
	params.ToolChoice = anthropic.ToolChoiceParamOfTool(name)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == name {
			return string(block.Input), nil
		}
	}
	return "", fmt.Errorf("llm generation failed: Anthropic API did not call %s", name)
}

func (c *Client) buildParams(messages []llm.Message, opts []llm.GenerateOption) anthropic.MessageNewParams {
	options := llm.ApplyGenerateOptions(opts)
	system, turns := llm.SplitSystem(messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(options.Temperature),
		Messages:    make([]anthropic.MessageParam, 0, len(turns)),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = int64(options.MaxTokens)
	}
	// Some models reject temperature and top_p together; only send top_p when changed.
	if options.TopP > 0 && options.TopP < 1 {
		params.TopP = anthropic.Float(options.TopP)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(options.Stop) > 0 {
		params.StopSequences = options.Stop
	}

	for _, msg := range turns {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == llm.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	return params
}

// Close is a no-op; the SDK client holds no resources.
func (c *Client) Close() error {
	return nil
}
