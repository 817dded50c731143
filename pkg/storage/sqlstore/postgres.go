package sqlstore

import (
	"context"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresConfig contains PostgreSQL configuration.
type PostgresConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	TableName string
}

// DSN renders the lib/pq connection string.
func (cfg *PostgresConfig) DSN() string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)
}

// NewPostgres connects to PostgreSQL and prepares the fact table.
func NewPostgres(ctx context.Context, cfg *PostgresConfig) (*Client, error) {
	location := fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	client, err := open(ctx, Postgres, cfg.DSN(), cfg.TableName, location)
	if err != nil {
		return nil, fmt.Errorf("NewPostgres: %w", err)
	}
	return client, nil
}
