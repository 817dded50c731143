// Package gemini provides an embedder.Provider backed by the Google Gemini
// embedding models (text-embedding-004 by default).
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
)

// DefaultModel is the embedding model used when Config.Model is empty.
const DefaultModel = "text-embedding-004"

// Config contains configuration for the Gemini embedder.
type Config struct {
	// APIKey is the Google AI Studio key (required).
	APIKey string

	// Model is the embedding model name (default: text-embedding-004).
	Model string

	// Dimensions is informational; the model decides the vector size.
	Dimensions int
}

// Client implements embedder.Provider using the Gemini API.
type Client struct {
	client     *genai.Client
	model      *genai.EmbeddingModel
	dimensions int
}

// NewClient creates a Gemini embedding client.
//
// Parameters:
//   - ctx: Context used while dialing the API
//   - cfg: API key, model name and dimensions
//
// Returns:
//   - *Client: The embedder
//   - error: Error if the key is missing or the SDK client cannot be created
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini embedder: API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini embedder: %w", err)
	}

	return &Client{
		client:     client,
		model:      client.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts a single text to a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	res, err := c.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, embedder.ErrNoEmbedding
	}
	return embedder.Float64s(res.Embedding.Values), nil
}

// EmbedBatch converts multiple texts with a single BatchEmbedContents call.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	batch := c.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := c.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding generation failed: unexpected number of results from Gemini API (got %d, expected %d)", len(res.Embeddings), len(texts))
	}

	embeddings := make([][]float64, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		if emb == nil {
			return nil, embedder.ErrNoEmbedding
		}
		embeddings = append(embeddings, embedder.Float64s(emb.Values))
	}
	return embeddings, nil
}

// Dimensions returns the configured dimension (0 when left to the model).
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close closes the underlying SDK client.
func (c *Client) Close() error {
	return c.client.Close()
}
