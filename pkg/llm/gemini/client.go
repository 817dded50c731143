// Package gemini provides an llm.Provider backed by Google Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ava-assistant/avamem-go/pkg/llm"
)

// DefaultModel is the chat model used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Config contains configuration for the Gemini provider.
type Config struct {
	// APIKey is the Google AI Studio key (required).
	APIKey string

	// Model is the model name (default: gemini-2.5-flash).
	Model string
}

// Client implements llm.Provider with the generative-ai-go SDK.
//
// Each call configures a fresh GenerativeModel, so concurrent calls with
// different options do not interfere.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client.
//
// Parameters:
//   - ctx: Context used while dialing the API
//   - cfg: API key and model name
//
// Returns:
//   - *Client: The provider
//   - error: Error if the key is missing or the SDK client cannot be created
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini llm: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini llm: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{client: client, model: model}, nil
}

func (c *Client) generativeModel(opts []llm.GenerateOption) *genai.GenerativeModel {
	options := llm.ApplyGenerateOptions(opts)

	m := c.client.GenerativeModel(c.model)
	m.SetTemperature(float32(options.Temperature))
	if options.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(options.MaxTokens))
	}
	m.SetTopP(float32(options.TopP))
	if len(options.Stop) > 0 {
		m.StopSequences = options.Stop
	}
	return m
}

// Generate generates text from a single prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	m := c.generativeModel(opts)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// GenerateWithMessages replays messages as a chat. System messages become
// the system instruction, and the last message must come from the user.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	system, turns := llm.SplitSystem(messages)
	if len(turns) == 0 || turns[len(turns)-1].Role != llm.RoleUser {
		return "", errors.New("gemini llm: conversation must end with a user message")
	}

	m := c.generativeModel(opts)
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := m.StartChat()
	cs.History = toContents(turns[:len(turns)-1])

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// GenerateStructured uses Gemini's JSON response mode with a response schema.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema, opts ...llm.GenerateOption) (string, error) {
	m := c.generativeModel(opts)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = toGenaiSchema(schema)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// Close closes the underlying SDK client.
func (c *Client) Close() error {
	return c.client.Close()
}

func toContents(messages []llm.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return out
}

func toGenaiSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	switch s.Type {
	case llm.TypeObject:
		out.Type = genai.TypeObject
	case llm.TypeBoolean:
		out.Type = genai.TypeBoolean
	case llm.TypeNumber:
		out.Type = genai.TypeNumber
	case llm.TypeInteger:
		out.Type = genai.TypeInteger
	case llm.TypeArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGenaiSchema(p)
		}
	}
	out.Items = toGenaiSchema(s.Items)
	return out
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("llm generation failed: no candidates returned from Gemini API")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", llm.ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", llm.ErrEmptyResponse
	}
	return b.String(), nil
}
