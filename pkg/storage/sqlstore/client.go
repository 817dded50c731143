// Package sqlstore provides a Backend that keeps the fact sequence in a SQL
// table. SQLite, PostgreSQL and MySQL are supported through database/sql.
//
// Each fact is one row keyed by its position in the sequence. Embeddings are
// stored as JSON text, so a value that cannot be decoded survives a rewrite
// unchanged.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ava-assistant/avamem-go/pkg/storage"
)

// DefaultTableName is the table used when no name is configured.
const DefaultTableName = "facts"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect captures what differs between the supported databases.
type Dialect struct {
	// Name is the short backend name used in Describe, e.g. "sqlite".
	Name string

	// Driver is the database/sql driver name.
	Driver string

	// NumberedPlaceholders selects $1, $2, ... instead of ?.
	NumberedPlaceholders bool
}

// Predefined dialects.
var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite3"}
	Postgres = Dialect{Name: "postgres", Driver: "postgres", NumberedPlaceholders: true}
	MySQL    = Dialect{Name: "mysql", Driver: "mysql"}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.NumberedPlaceholders {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Client implements storage.Backend over a SQL table.
type Client struct {
	db        *sql.DB
	dialect   Dialect
	tableName string
	location  string
}

// open connects, pings and prepares the table.
func open(ctx context.Context, dialect Dialect, dsn, tableName, location string) (*Client, error) {
	if tableName == "" {
		tableName = DefaultTableName
	}
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	client := &Client{
		db:        db,
		dialect:   dialect,
		tableName: tableName,
		location:  location,
	}

	if err := client.initTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return client, nil
}

// NewClientFromDB wraps an existing connection. The table is created if needed.
func NewClientFromDB(ctx context.Context, db *sql.DB, dialect Dialect, tableName string) (*Client, error) {
	if tableName == "" {
		tableName = DefaultTableName
	}
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}
	client := &Client{db: db, dialect: dialect, tableName: tableName, location: tableName}
	if err := client.initTable(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) initTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			position BIGINT PRIMARY KEY,
			text TEXT NOT NULL,
			embedding TEXT,
			created_at VARCHAR(64)
		)
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTable: %w", err)
	}
	return nil
}

// Load reads every row ordered by position.
//
// An empty table is an empty sequence, not ErrNotExist: the table is created
// on open, so there is no separate "never saved" state.
func (c *Client) Load(ctx context.Context) ([]storage.Fact, error) {
	query := fmt.Sprintf(`SELECT text, embedding, created_at FROM %s ORDER BY position`, c.tableName)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrStoreCorrupt, err)
	}
	defer func() { _ = rows.Close() }()

	facts := []storage.Fact{}
	for rows.Next() {
		var (
			text      string
			embedding sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&text, &embedding, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrStoreCorrupt, err)
		}

		var raw []byte
		if embedding.Valid {
			raw = []byte(embedding.String)
		}
		facts = append(facts, storage.FactFromRecord(text, raw, parseTime(createdAt)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrStoreCorrupt, err)
	}

	return facts, nil
}

// Save replaces every row inside one transaction.
func (c *Client) Save(ctx context.Context, facts []storage.Fact) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", c.tableName)); err != nil {
		return fmt.Errorf("Save: clear: %w", err)
	}

	insert := c.dialect.rebind(fmt.Sprintf(
		"INSERT INTO %s (position, text, embedding, created_at) VALUES (?, ?, ?, ?)", c.tableName))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("Save: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, f := range facts {
		emb, encErr := f.EmbeddingJSON()
		if encErr != nil {
			err = fmt.Errorf("Save: encode fact %d: %w", i, encErr)
			return err
		}

		var embedding sql.NullString
		if emb != nil {
			embedding = sql.NullString{String: string(emb), Valid: true}
		}

		var createdAt sql.NullString
		if !f.CreatedAt.IsZero() {
			createdAt = sql.NullString{String: f.CreatedAt.UTC().Format(time.RFC3339Nano), Valid: true}
		}

		if _, err = stmt.ExecContext(ctx, i, f.Text, embedding, createdAt); err != nil {
			return fmt.Errorf("Save: insert fact %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Save: commit: %w", err)
	}
	return nil
}

// Describe returns "<dialect>:<location>".
func (c *Client) Describe() string {
	return c.dialect.Name + ":" + c.location
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
