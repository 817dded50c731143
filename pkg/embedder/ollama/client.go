// Package ollama provides an embedder.Provider backed by a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "nomic-embed-text"
)

// Config contains configuration for the Ollama embedder.
type Config struct {
	// Model is the embedding model name (default: nomic-embed-text).
	Model string

	// BaseURL is the Ollama server address (default: http://localhost:11434).
	BaseURL string

	// Dimensions is informational; the model decides the vector size.
	Dimensions int
}

// Client implements embedder.Provider with the Ollama /api/embed endpoint.
type Client struct {
	client     *ollama.Client
	model      string
	dimensions int
}

// NewClient creates an Ollama embedding client.
func NewClient(cfg *Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	hc := &http.Client{Timeout: 120 * time.Second}

	return &Client{
		client:     ollama.NewClient(parsedURL, hc),
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts a single text to a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Embed(ctx, &ollama.EmbedRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get embeddings from ollama: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, embedder.ErrNoEmbedding
	}
	return embedder.Float64s(resp.Embeddings[0]), nil
}

// EmbedBatch converts multiple texts in one request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.Embed(ctx, &ollama.EmbedRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get batch embeddings from ollama: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding generation failed: unexpected number of results from Ollama (got %d, expected %d)", len(resp.Embeddings), len(texts))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, v := range resp.Embeddings {
		out[i] = embedder.Float64s(v)
	}
	return out, nil
}

// Dimensions returns the configured dimension (0 when left to the model).
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op for the HTTP client.
func (c *Client) Close() error {
	return nil
}
