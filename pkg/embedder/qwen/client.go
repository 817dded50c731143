// Package qwen provides an embedder.Provider backed by the Alibaba Cloud
// DashScope text embedding API.
package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
)

const (
	defaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"
	defaultModel   = "text-embedding-v4"
	embeddingPath  = "/services/embeddings/text-embedding/text-embedding"
)

// Client implements embedder.Provider using DashScope.
type Client struct {
	client     *http.Client
	apiKey     string
	model      string
	baseURL    string
	dimensions int
}

// Config contains configuration for creating a Qwen Embedder client.
type Config struct {
	// APIKey is the DashScope API key (required).
	APIKey string

	// Model is the model name to use (default: "text-embedding-v4").
	Model string

	// BaseURL is the API base URL (default: DashScope official address).
	BaseURL string

	// Dimensions is the requested vector size (0 leaves it to the model).
	Dimensions int

	// HTTPClient is a custom HTTP client (uses default if nil).
	HTTPClient *http.Client
}

type embeddingRequest struct {
	Model      string               `json:"model"`
	Input      embeddingInput       `json:"input"`
	Parameters *embeddingParameters `json:"parameters,omitempty"`
}

type embeddingInput struct {
	Texts []string `json:"texts"`
}

type embeddingParameters struct {
	TextType  string `json:"text_type,omitempty"`
	Dimension int    `json:"dimension,omitempty"`
}

type embeddingResponse struct {
	Output struct {
		Embeddings []struct {
			TextIndex int       `json:"text_index"`
			Embedding []float64 `json:"embedding"`
		} `json:"embeddings"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient creates a new Qwen Embedder client.
//
// Parameters:
//   - cfg: APIKey, Model, BaseURL, Dimensions and an optional HTTP client
//
// Returns:
//   - *Client: Qwen Embedder client instance
//   - error: Error if the API key is missing
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("qwen embedder: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		client:     client,
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts a single text string into a vector embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors[0]) == 0 {
		return nil, embedder.ErrNoEmbedding
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts in a single request. Results are
// ordered by the text_index the API reports.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	body := embeddingRequest{
		Model: c.model,
		Input: embeddingInput{Texts: texts},
		Parameters: &embeddingParameters{
			TextType:  "document",
			Dimension: c.dimensions,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+embeddingPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var response embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if response.Code != "" {
		return nil, fmt.Errorf("API error %s: %s", response.Code, response.Message)
	}

	if len(response.Output.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding generation failed: unexpected number of results from Qwen API (got %d, expected %d)", len(response.Output.Embeddings), len(texts))
	}

	embeddings := make([][]float64, len(texts))
	for _, emb := range response.Output.Embeddings {
		if emb.TextIndex < 0 || emb.TextIndex >= len(texts) {
			return nil, fmt.Errorf("embedding generation failed: text_index %d out of range", emb.TextIndex)
		}
		embeddings[emb.TextIndex] = emb.Embedding
	}

	return embeddings, nil
}

// Dimensions returns the requested vector dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op for the HTTP client.
func (c *Client) Close() error {
	return nil
}
