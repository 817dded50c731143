package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sirupsen/logrus"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
	"github.com/ava-assistant/avamem-go/pkg/intelligence"
	"github.com/ava-assistant/avamem-go/pkg/llm"
	geminiLLM "github.com/ava-assistant/avamem-go/pkg/llm/gemini"
	"github.com/ava-assistant/avamem-go/pkg/logger"
	"github.com/ava-assistant/avamem-go/pkg/storage"
)

// User-facing replies produced without the chat model.
const (
	MemoryTag      = "Ava (Memory): "
	ErrorTag       = "Ava (Error): "
	PromptForInput = "Please enter some text."

	MissingFactText       = ErrorTag + "You must provide the text you want to save."
	SessionUnavailable    = "Error: the chat session is not initialized. Check the log."
	EmbedderUnavailable   = "The embedding provider is not initialized."
	ChatFailureReplyStart = "An error occurred while communicating with the language model: "
)

// Client owns the memory subsystem of a single user: the fact store, the
// providers, the retriever and classifier, and the chat session.
//
// It is created once at process start and closed at process stop. All
// methods are safe for concurrent use.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(ctx, config)
//	defer client.Close()
//
//	reply := client.HandleTurn(ctx, "What coffee do I like?")
type Client struct {
	config *Config

	store      *storage.Store
	llm        llm.Provider
	session    llm.Session
	embedder   embedder.Provider
	retriever  *intelligence.Retriever
	classifier *intelligence.FactClassifier

	// turnIDs generates correlation ids for log lines of one turn.
	turnIDs *snowflake.Node

	timeout   time.Duration
	directive string
	log       *logrus.Entry
	startedAt time.Time
}

// NewClient creates a Client and loads the persisted facts.
//
// Chat and embedding providers that cannot be built (for example because no
// API key is set) are logged and left unavailable; the operations that need
// them degrade. A backend that cannot be opened is an error.
//
// Parameters:
//   - ctx: Context for backend setup and the initial load
//   - cfg: Configuration (defaults are applied to a copy)
//   - opts: Injected collaborators, mainly for tests and embedding
//
// Returns a ready Client, or an error if the configuration is invalid or the
// backend fails to open.
func NewClient(ctx context.Context, cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, NewMemoryError("NewClient", ErrInvalidConfig)
	}
	config := *cfg
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := applyClientOptions(opts)
	log := options.Logger
	if log == nil {
		log = logger.New("avamem").Entry()
	}

	backend := options.Backend
	if backend == nil {
		var err error
		backend, err = initBackend(ctx, config.Store)
		if err != nil {
			return nil, NewMemoryError("NewClient", err)
		}
	}

	llmProvider := options.LLM
	if !options.llmSet {
		p, err := initLLM(ctx, config.LLM)
		if err != nil {
			log.WithError(err).WithField("provider", config.LLM.Provider).
				Warn("Chat provider unavailable, chat and classification will degrade")
		} else {
			llmProvider = p
		}
	}

	embedderProvider := options.Embedder
	if !options.embedderSet {
		p, err := initEmbedder(ctx, config.Embedder)
		if err != nil {
			log.WithError(err).WithField("provider", config.Embedder.Provider).
				Warn("Embedding provider unavailable, memory retrieval and saving will degrade")
		} else {
			embedderProvider = p
		}
	}

	session := options.Session
	if !options.sessionSet && llmProvider != nil {
		session = llm.NewSession(llmProvider, config.Memory.Persona)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	timeout := config.Memory.Timeout()
	store := storage.NewStore(backend, log.WithField("component", "store"))

	client := &Client{
		config:   &config,
		store:    store,
		llm:      llmProvider,
		session:  session,
		embedder: embedderProvider,
		retriever: intelligence.NewRetriever(store, embedderProvider, &intelligence.RetrieverConfig{
			Threshold: config.Memory.Threshold,
			Timeout:   timeout,
		}, log.WithField("component", "retriever")),
		classifier: intelligence.NewFactClassifier(llmProvider, timeout, log.WithField("component", "classifier")),
		turnIDs:    node,
		timeout:    timeout,
		directive:  config.Memory.Directive,
		log:        log,
		startedAt:  time.Now(),
	}

	count := store.Load(ctx)
	log.WithFields(logrus.Fields{
		"facts":     count,
		"store":     store.Describe(),
		"chat":      session != nil,
		"embedding": embedderProvider != nil,
	}).Info("Memory client initialized")

	return client, nil
}

// HandleTurn answers one user message.
//
// The message is either the save directive, which stores the rest of the
// message as a fact without consulting the model, or conversational input,
// which is sent to the chat session together with the relevant facts.
// HandleTurn always returns a reply; failures become explanatory text.
func (c *Client) HandleTurn(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return PromptForInput
	}

	log := c.log.WithField("turn_id", c.turnIDs.Generate().String())

	if payload, ok := c.directivePayload(text); ok {
		if payload == "" {
			return MissingFactText
		}
		log.Info("Save directive received")
		result := c.AcceptFact(ctx, payload)
		return MemoryTag + result.Message
	}

	if c.session == nil {
		log.WithError(NewMemoryError("HandleTurn", ErrConfigurationUnavailable)).Error("Cannot answer, chat session is not initialized")
		return SessionUnavailable
	}

	retrieval := c.retriever.Retrieve(ctx, text)
	log.WithField("memory", retrieval.Outcome.String()).Debug("Memory context prepared")

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.session.Send(callCtx, AugmentedPrompt(text, retrieval.Context))
	if err != nil {
		err = providerError("HandleTurn", err)
		log.WithError(err).Error("Chat request failed")
		return ChatFailureReplyStart + err.Error()
	}

	log.Info("Reply received")
	return reply
}

// AugmentedPrompt joins a user message and a memory context block in the
// layout the persona expects.
func AugmentedPrompt(userText, memoryContext string) string {
	return "USER MESSAGE:\n" + userText + "\n\nLONG-TERM MEMORY CONTEXT: " + memoryContext
}

// directivePayload reports whether text is the save directive and returns
// the trimmed payload. The bare directive word counts, with an empty payload.
func (c *Client) directivePayload(text string) (string, bool) {
	if strings.HasPrefix(text, c.directive) {
		return strings.TrimSpace(text[len(c.directive):]), true
	}
	if text == strings.TrimSpace(c.directive) {
		return "", true
	}
	return "", false
}

// Classify judges whether text contains a personal fact worth saving.
// It never changes memory. Empty text is not sent to the model.
func (c *Client) Classify(ctx context.Context, text string) intelligence.Classification {
	text = strings.TrimSpace(text)
	if text == "" {
		return intelligence.Classification{}
	}
	return c.classifier.Classify(ctx, text)
}

// AcceptFact embeds text and appends it to memory.
//
// A failure to write the store to its backend does not undo the append: the
// fact stays usable until restart, the result reports success, and the
// message says the fact was not persisted.
func (c *Client) AcceptFact(ctx context.Context, text string) AcceptResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return AcceptResult{Success: false, Message: "The fact text is empty."}
	}

	log := c.log.WithField("fact", text)
	if c.embedder == nil {
		log.WithError(NewMemoryError("AcceptFact", ErrConfigurationUnavailable)).Error("Cannot save fact")
		return AcceptResult{Success: false, Message: EmbedderUnavailable}
	}

	embedCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Info("Creating embedding for new fact")
	vec, err := c.embedder.Embed(embedCtx, text)
	if err == nil && len(vec) == 0 {
		err = embedder.ErrNoEmbedding
	}
	if err != nil {
		err = providerError("AcceptFact", err)
		log.WithError(err).Error("Cannot create embedding for new fact")
		return AcceptResult{Success: false, Message: fmt.Sprintf("I could not save the fact: %v", err)}
	}

	if err := c.store.AppendAndPersist(ctx, storage.NewFact(text, vec)); err != nil {
		if errors.Is(err, ErrPersistence) {
			return AcceptResult{
				Success: true,
				Message: fmt.Sprintf("I saved a new fact: '%s', but it could not be written to disk and will be forgotten after a restart.", text),
			}
		}
		return AcceptResult{Success: false, Message: fmt.Sprintf("I could not save the fact: %v", err)}
	}

	return AcceptResult{Success: true, Message: fmt.Sprintf("I saved a new fact: '%s'", text)}
}

// Facts returns the texts of all remembered facts in insertion order.
func (c *Client) Facts() []string {
	facts := c.store.Snapshot()
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.Text
	}
	return out
}

// Status reports which capabilities are available.
func (c *Client) Status() Status {
	return Status{
		Ready:         c.session != nil,
		Model:         c.Model(),
		LLMProvider:   c.config.LLM.Provider,
		EmbedderReady: c.embedder != nil,
		Store:         c.store.Describe(),
		Facts:         c.store.Len(),
		Threshold:     c.retriever.Threshold(),
		StartedAt:     c.startedAt,
	}
}

// Model returns the configured chat model name.
func (c *Client) Model() string {
	if c.config.LLM.Model != "" {
		return c.config.LLM.Model
	}
	if c.config.LLM.Provider == "gemini" {
		return geminiLLM.DefaultModel
	}
	return c.config.LLM.Provider
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return *c.config
}

// Close releases the providers and the store. It returns the first error.
func (c *Client) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if c.llm != nil {
		keep(c.llm.Close())
	}
	if c.embedder != nil {
		keep(c.embedder.Close())
	}
	keep(c.store.Close())
	return NewMemoryError("Close", first)
}
