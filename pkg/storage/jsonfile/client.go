// Package jsonfile provides a Backend that keeps the fact sequence in a single
// JSON document on the local file system.
//
// The document is a JSON array of {"text", "embedding", "created_at"} records
// written with four-space indentation. Every save goes to a temporary file in
// the same directory which is then renamed over the target, so readers never
// observe a half-written document.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ava-assistant/avamem-go/pkg/storage"
)

// DefaultPath is the document used when Config.Path is empty.
const DefaultPath = "ava_memory.json"

// Config contains configuration for a JSON file backend.
type Config struct {
	// Path is the location of the memory document.
	Path string

	// Indent is the per-level indentation (default: four spaces).
	Indent string
}

// Client implements storage.Backend over a JSON document.
type Client struct {
	path   string
	indent string
}

// NewClient creates a JSON file backend.
//
// The parent directory is created if it does not exist. The document itself
// is not touched until the first Save.
//
// Parameters:
//   - cfg: Backend configuration (nil uses defaults)
//
// Returns:
//   - *Client: The backend
//   - error: Error if the parent directory cannot be created
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	indent := cfg.Indent
	if indent == "" {
		indent = "    "
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("NewJSONFileClient: failed to create directory: %w", err)
		}
	}

	return &Client{path: path, indent: indent}, nil
}

// Load reads and parses the document.
func (c *Client) Load(ctx context.Context) ([]storage.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotExist, c.path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", storage.ErrStoreCorrupt, c.path, err)
	}

	facts, err := storage.DecodeFacts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	return facts, nil
}

// Save atomically replaces the document with facts.
func (c *Client) Save(ctx context.Context, facts []storage.Fact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := storage.EncodeFacts(facts, c.indent)
	if err != nil {
		return fmt.Errorf("Save: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("Save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("Save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("Save: close: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("Save: chmod: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("Save: rename: %w", err)
	}
	return nil
}

// Describe returns "json:<path>".
func (c *Client) Describe() string {
	return "json:" + c.path
}

// Path returns the document location.
func (c *Client) Path() string {
	return c.path
}

// Close is a no-op; the document is not held open between calls.
func (c *Client) Close() error {
	return nil
}
