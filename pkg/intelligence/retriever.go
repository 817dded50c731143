package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ava-assistant/avamem-go/pkg/embedder"
	"github.com/ava-assistant/avamem-go/pkg/storage"
)

// DefaultThreshold is the minimum cosine similarity for a fact to be
// included in the memory context. The comparison is strict.
const DefaultThreshold = 0.55

// Memory context markers. Exactly one of them heads every context block.
const (
	MemoryHeader   = "LONG-TERM MEMORY:"
	NoMemoryMarker = "No long-term memory available."
	NoMatchMarker  = "Relevant facts found: none."
	FailedMarker   = "Fact lookup failed."
)

// Outcome classifies a retrieval.
type Outcome int

const (
	// OutcomeNoMemory means the store holds no facts at all.
	OutcomeNoMemory Outcome = iota
	// OutcomeFound means at least one fact passed the threshold.
	OutcomeFound
	// OutcomeNoMatch means facts exist but none passed the threshold.
	OutcomeNoMatch
	// OutcomeFailed means the query could not be embedded.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoMemory:
		return "no_memory"
	case OutcomeFound:
		return "found"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Retrieval is the result of Retrieve.
type Retrieval struct {
	Outcome Outcome

	// Context is the text block to place in the augmented prompt.
	Context string

	// Facts are the matching fact texts in store order (OutcomeFound only).
	Facts []string

	// Err is the embedding failure (OutcomeFailed only).
	Err error
}

// FactSource supplies the facts to search. *storage.Store implements it.
type FactSource interface {
	Snapshot() []storage.Fact
}

// RetrieverConfig contains retrieval settings.
type RetrieverConfig struct {
	// Threshold is the strict lower bound on similarity. Zero selects
	// DefaultThreshold; use a negative value to include every valid fact.
	Threshold float64

	// Timeout bounds the query embedding call. Zero means no extra bound.
	Timeout time.Duration
}

// Retriever selects facts relevant to a query by cosine similarity against
// every stored fact.
//
// Example usage:
//
//	r := NewRetriever(store, emb, &RetrieverConfig{}, log)
//	res := r.Retrieve(ctx, "What is my dog's name?")
//	prompt := res.Context
type Retriever struct {
	facts     FactSource
	embedder  embedder.Provider
	threshold float64
	timeout   time.Duration
	log       *logrus.Entry
}

// NewRetriever creates a Retriever. emb may be nil, in which case every
// retrieval reports OutcomeNoMemory.
func NewRetriever(facts FactSource, emb embedder.Provider, cfg *RetrieverConfig, log *logrus.Entry) *Retriever {
	if cfg == nil {
		cfg = &RetrieverConfig{}
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Retriever{
		facts:     facts,
		embedder:  emb,
		threshold: threshold,
		timeout:   cfg.Timeout,
		log:       log,
	}
}

// Threshold returns the effective similarity threshold.
func (r *Retriever) Threshold() float64 {
	return r.threshold
}

// Retrieve embeds query and returns every valid fact whose similarity to it
// is strictly greater than the threshold, in store order.
//
// Retrieve never returns an error; failures are reported through
// OutcomeFailed and a Context the model can read.
func (r *Retriever) Retrieve(ctx context.Context, query string) Retrieval {
	facts := r.facts.Snapshot()
	if len(facts) == 0 || r.embedder == nil {
		return Retrieval{Outcome: OutcomeNoMemory, Context: NoMemoryMarker}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err == nil && len(queryVec) == 0 {
		err = embedder.ErrNoEmbedding
	}
	if err != nil {
		r.log.WithError(err).Error("Fact lookup failed")
		return Retrieval{Outcome: OutcomeFailed, Context: FailedMarker, Err: err}
	}

	var (
		matches    []string
		skipped    int
		mismatched int
	)
	for _, f := range facts {
		if err := f.Check(); err != nil {
			r.log.WithError(err).WithField("fact", f.Text).Warn("Skipping fact without usable embedding")
			skipped++
			continue
		}
		score, ok := CosineSimilarity(queryVec, f.Embedding)
		if !ok {
			if len(f.Embedding) != len(queryVec) {
				mismatched++
			} else {
				skipped++
			}
			continue
		}
		if score > r.threshold {
			matches = append(matches, f.Text)
		}
	}

	entry := r.log.WithFields(logrus.Fields{
		"facts":   len(facts),
		"matches": len(matches),
	})
	if skipped > 0 {
		entry = entry.WithField("skipped", skipped)
	}
	if mismatched > 0 {
		entry = entry.WithField("dimension_mismatch", mismatched)
		entry.Warn("Some facts were embedded with a different vector size and cannot be compared")
	}
	entry.Debug("Fact lookup finished")

	if len(matches) == 0 {
		return Retrieval{Outcome: OutcomeNoMatch, Context: NoMatchMarker}
	}
	return Retrieval{
		Outcome: OutcomeFound,
		Context: MemoryHeader + "\n" + strings.Join(matches, "\n"),
		Facts:   matches,
	}
}
