package llm

import (
	"context"
	"sync"
)

// Session is a stateful conversation with a language model.
//
// Implementations keep the exchanged turns and send them with every new
// message, so replies can refer back to earlier turns.
type Session interface {
	// Send submits text as the next user turn and returns the model's reply.
	// On error the session history is left unchanged.
	Send(ctx context.Context, text string) (string, error)

	// History returns a copy of the turns exchanged so far.
	History() []Message
}

// ChatSession is a Session over any Provider.
//
// Sends are serialized: a turn is recorded only once its reply has arrived,
// and the next turn waits for it.
type ChatSession struct {
	provider Provider
	system   string
	opts     []GenerateOption

	mu      sync.Mutex
	history []Message
}

// NewSession starts an empty conversation.
//
// Parameters:
//   - provider: The model to talk to
//   - systemInstruction: Persona or standing instructions (may be empty)
//   - opts: Generation options applied to every turn
func NewSession(provider Provider, systemInstruction string, opts ...GenerateOption) *ChatSession {
	return &ChatSession{
		provider: provider,
		system:   systemInstruction,
		opts:     opts,
	}
}

// Send implements Session.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]Message, 0, len(s.history)+2)
	if s.system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: s.system})
	}
	messages = append(messages, s.history...)
	messages = append(messages, Message{Role: RoleUser, Content: text})

	reply, err := s.provider.GenerateWithMessages(ctx, messages, s.opts...)
	if err != nil {
		return "", err
	}

	s.history = append(s.history,
		Message{Role: RoleUser, Content: text},
		Message{Role: RoleAssistant, Content: reply},
	)
	return reply, nil
}

// History implements Session.
func (s *ChatSession) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}
