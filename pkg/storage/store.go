package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Store holds the ordered fact sequence for the single user.
//
// Reads run concurrently with each other. Appends are serialized, and each
// append rewrites the full sequence through the Backend before returning.
type Store struct {
	backend Backend
	log     *logrus.Entry

	// writeMu serializes Load and AppendAndPersist end to end.
	writeMu sync.Mutex

	mu    sync.RWMutex
	facts []Fact
}

// NewStore creates an empty Store over backend. Call Load to populate it.
//
// Parameters:
//   - backend: Durable medium for the sequence
//   - log: Logger for load and persistence events (nil uses the standard logger)
func NewStore(backend Backend, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{
		backend: backend,
		log:     log.WithField("store", backend.Describe()),
		facts:   []Fact{},
	}
}

// Load reads the persisted sequence and replaces the in-memory one.
//
// Load never fails. A missing document yields an empty store. A corrupt or
// unreadable document is logged and also yields an empty store; the next
// append will overwrite it. Incomplete records are kept and counted in the
// log. Returns the number of facts loaded.
func (s *Store) Load(ctx context.Context) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	facts, err := s.backend.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotExist):
		s.log.Info("No stored memory found, starting empty")
		facts = nil
	default:
		s.log.WithError(err).Error("Stored memory is unreadable, starting empty")
		facts = nil
	}

	incomplete, badTimestamps := 0, 0
	for _, f := range facts {
		if !f.Valid() {
			incomplete++
		}
		if f.BadTimestamp() {
			badTimestamps++
		}
	}
	if incomplete > 0 {
		s.log.WithField("incomplete", incomplete).Warn("Some facts have no usable embedding and will be skipped during retrieval")
	}
	if badTimestamps > 0 {
		s.log.WithField("bad_timestamps", badTimestamps).Warn("Some facts have an unreadable created_at, kept without a time")
	}

	if facts == nil {
		facts = []Fact{}
	}

	s.mu.Lock()
	s.facts = facts
	s.mu.Unlock()

	s.log.WithField("facts", len(facts)).Info("Memory loaded")
	return len(facts)
}

// AppendAndPersist appends fact to the end of the sequence and rewrites the
// persisted form.
//
// The fact stays in memory even when persisting fails; the returned error
// then wraps ErrPersistence and the on-disk form lags behind until the next
// successful write.
func (s *Store) AppendAndPersist(ctx context.Context, fact Fact) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.facts = append(s.facts, fact)
	snapshot := make([]Fact, len(s.facts))
	copy(snapshot, s.facts)
	s.mu.Unlock()

	if err := s.backend.Save(ctx, snapshot); err != nil {
		s.log.WithError(err).WithField("facts", len(snapshot)).Error("Failed to persist memory")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.WithField("facts", len(snapshot)).Debug("Memory persisted")
	return nil
}

// Snapshot returns a copy of the current sequence in insertion order.
func (s *Store) Snapshot() []Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Fact, len(s.facts))
	copy(out, s.facts)
	return out
}

// Len returns the number of facts currently held, including incomplete ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}

// Describe returns the backend location.
func (s *Store) Describe() string {
	return s.backend.Describe()
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
