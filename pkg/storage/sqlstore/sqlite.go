package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig contains configuration for a SQLite backend.
type SQLiteConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the table holding the facts (default: facts).
	TableName string
}

// NewSQLite opens (or creates) a SQLite database and prepares the fact table.
//
// Parameters:
//   - ctx: Context for the connection check and table creation
//   - cfg: Database path and table name
//
// Returns:
//   - *Client: The backend
//   - error: Error if the directory, connection or table cannot be created
func NewSQLite(ctx context.Context, cfg *SQLiteConfig) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLite: failed to create directory: %w", err)
		}
	}

	client, err := open(ctx, SQLite, cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000", cfg.TableName, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("NewSQLite: %w", err)
	}
	return client, nil
}
