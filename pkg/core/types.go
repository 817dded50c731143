package core

import "time"

// AcceptResult is the outcome of AcceptFact.
type AcceptResult struct {
	// Success reports whether the fact is now in memory.
	Success bool `json:"success"`

	// Message is a user-facing confirmation or explanation.
	Message string `json:"message"`
}

// Status describes which parts of the client are operational.
type Status struct {
	// Ready is true when the chat session is available.
	Ready bool `json:"ready"`

	// Model is the configured chat model.
	Model string `json:"model"`

	// LLMProvider is the configured chat provider name.
	LLMProvider string `json:"llm_provider"`

	// EmbedderReady is true when facts can be embedded and retrieved.
	EmbedderReady bool `json:"embedder_ready"`

	// Store describes where memory is persisted, e.g. "json:./ava_memory.json".
	Store string `json:"store"`

	// Facts is the number of facts currently in memory.
	Facts int `json:"facts"`

	// Threshold is the retrieval similarity threshold.
	Threshold float64 `json:"threshold"`

	// StartedAt is when the client was created.
	StartedAt time.Time `json:"started_at"`
}
