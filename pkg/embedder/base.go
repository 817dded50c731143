// Package embedder provides interfaces for text embedding providers.
//
// Facts and queries are embedded with the same Provider so that their
// vectors can be compared with cosine similarity.
package embedder

import (
	"context"
	"errors"
)

// ErrNoEmbedding indicates that a provider answered without a vector.
var ErrNoEmbedding = errors.New("embedding generation failed: no embedding returned")

// Provider defines the interface for embedding providers.
//
// All embedding implementations (Gemini, OpenAI, Qwen, Ollama, hash) must implement this interface.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	//
	// Returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the configured vector dimension, or 0 when the
	// provider decides it (for example Gemini text-embedding-004 returns 768).
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}

// Float64s widens a float32 vector, as returned by most SDKs.
func Float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
