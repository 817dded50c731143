package core

import (
	"github.com/sirupsen/logrus"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
	"github.com/ava-assistant/avamem-go/pkg/llm"
	"github.com/ava-assistant/avamem-go/pkg/storage"
)

// ClientOption is a function type for configuring NewClient.
//
// Options replace the provider that would otherwise be built from Config.
// Passing nil is allowed and leaves that capability unavailable.
type ClientOption func(*ClientOptions)

// ClientOptions contains the collaborators injected into NewClient.
type ClientOptions struct {
	LLM    llm.Provider
	llmSet bool

	Session    llm.Session
	sessionSet bool

	Embedder    embedder.Provider
	embedderSet bool

	Backend storage.Backend

	Logger *logrus.Entry
}

// WithLLM uses provider for chat and classification instead of building one
// from Config.LLM.
//
// Example:
//
//	client, _ := core.NewClient(ctx, cfg, core.WithLLM(myProvider))
func WithLLM(provider llm.Provider) ClientOption {
	return func(opts *ClientOptions) {
		opts.LLM = provider
		opts.llmSet = true
	}
}

// WithSession uses session for conversational turns instead of starting one
// over the LLM provider.
func WithSession(session llm.Session) ClientOption {
	return func(opts *ClientOptions) {
		opts.Session = session
		opts.sessionSet = true
	}
}

// WithEmbedder uses provider for fact and query embeddings instead of
// building one from Config.Embedder.
func WithEmbedder(provider embedder.Provider) ClientOption {
	return func(opts *ClientOptions) {
		opts.Embedder = provider
		opts.embedderSet = true
	}
}

// WithBackend persists facts through backend instead of the one selected by
// Config.Store.
func WithBackend(backend storage.Backend) ClientOption {
	return func(opts *ClientOptions) {
		opts.Backend = backend
	}
}

// WithLogger sets the logger used by the client and its components.
func WithLogger(log *logrus.Entry) ClientOption {
	return func(opts *ClientOptions) {
		opts.Logger = log
	}
}

// applyClientOptions applies a slice of ClientOption functions.
func applyClientOptions(opts []ClientOption) *ClientOptions {
	options := &ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
