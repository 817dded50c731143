// Package openai provides an embedder.Provider backed by the OpenAI
// Embeddings API or any API compatible with it.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
)

// Client is an OpenAI Embedder client.
// It implements the embedder.Provider interface on top of the OpenAI Embeddings API.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Config is the configuration for OpenAI Embedder.
// APIKey: OpenAI API key (required)
// Model: Model name to use, defaults to text-embedding-3-small
// BaseURL: API base URL, defaults to OpenAI official address
// Dimensions: Requested vector size; only text-embedding-3 models honour it
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
}

// NewClient creates a new OpenAI Embedder client.
//
// Args:
//   - cfg: OpenAI Embedder configuration containing APIKey, Model, BaseURL, Dimensions
//
// Returns:
//   - *Client: OpenAI Embedder client instance
//   - error: Returns an error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (c *Client) request(input []string) openai.EmbeddingRequest {
	req := openai.EmbeddingRequest{
		Input: input,
		Model: c.model,
	}
	// Ada v2 rejects the dimensions parameter.
	if c.dimensions > 0 && strings.HasPrefix(string(c.model), "text-embedding-3") {
		req.Dimensions = c.dimensions
	}
	return req
}

// Embed converts a single text to a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, c.request([]string{text}))
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, embedder.ErrNoEmbedding
	}

	return embedder.Float64s(resp.Data[0].Embedding), nil
}

// EmbedBatch converts multiple texts to vectors in one request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, c.request(texts))
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding generation failed: unexpected number of results from OpenAI API (got %d, expected %d)", len(resp.Data), len(texts))
	}

	embeddings := make([][]float64, len(texts))
	for i, data := range resp.Data {
		embeddings[i] = embedder.Float64s(data.Embedding)
	}

	return embeddings, nil
}

// Dimensions returns the requested vector dimension (0 means model default).
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; the SDK client holds no resources.
func (c *Client) Close() error {
	return nil
}
