package intelligence_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ava-assistant/avamem-go/pkg/llm"
	"github.com/ava-assistant/avamem-go/pkg/storage"
)

// mapEmbedder returns fixed vectors per text.
type mapEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (e *mapEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	v, ok := e.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

func (e *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *mapEmbedder) Dimensions() int { return 0 }
func (e *mapEmbedder) Close() error    { return nil }

// staticFacts is a FactSource over a fixed slice.
type staticFacts []storage.Fact

func (s staticFacts) Snapshot() []storage.Fact {
	return append([]storage.Fact(nil), s...)
}

// structuredLLM answers GenerateStructured with a fixed reply per prompt substring.
type structuredLLM struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	prompts []string
	schemas []*llm.Schema
}

func (p *structuredLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (p *structuredLLM) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (p *structuredLLM) GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema, opts ...llm.GenerateOption) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.schemas = append(p.schemas, schema)
	p.mu.Unlock()
	return p.reply(prompt)
}

func (p *structuredLLM) Close() error { return nil }

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
