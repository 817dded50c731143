// Package storage provides the fact store and the durable backends behind it.
//
// The Store keeps the ordered sequence of remembered facts in memory and
// rewrites the whole sequence through a Backend after every append. Backends
// only know how to load and save that sequence; ordering, locking and failure
// policy live in the Store.
package storage

import (
	"context"
	"errors"
)

// Predefined errors for backend and store failures.
var (
	// ErrNotExist indicates that no persisted memory document exists yet.
	// A Store treats this as an empty memory, not as a failure.
	ErrNotExist = errors.New("memory document does not exist")

	// ErrStoreCorrupt indicates that the persisted memory could not be parsed
	// or is not a sequence of fact records.
	ErrStoreCorrupt = errors.New("memory document is corrupt")

	// ErrRecordIncomplete indicates that a fact record lacks a usable embedding.
	ErrRecordIncomplete = errors.New("fact record has no usable embedding")

	// ErrPersistence indicates that writing the memory sequence failed.
	ErrPersistence = errors.New("memory persistence failed")
)

// Backend is the durable medium behind a Store.
//
// Implementations must return facts in the order they were saved, and Save
// must replace the previously persisted sequence as a whole.
type Backend interface {
	// Load reads the full persisted sequence.
	//
	// Returns ErrNotExist (wrapped) when nothing has been persisted yet, and
	// ErrStoreCorrupt (wrapped) when the persisted form is unreadable or is
	// not a sequence of records.
	Load(ctx context.Context) ([]Fact, error)

	// Save replaces the persisted sequence with facts.
	Save(ctx context.Context, facts []Fact) error

	// Describe returns a short human-readable location, e.g. "json:./ava_memory.json".
	Describe() string

	// Close releases resources held by the backend.
	Close() error
}
