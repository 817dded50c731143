package sqlstore

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLConfig contains MySQL (or OceanBase in MySQL mode) configuration.
type MySQLConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	TableName string
}

// DSN renders the go-sql-driver connection string.
func (cfg *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
}

// NewMySQL connects to MySQL and prepares the fact table.
func NewMySQL(ctx context.Context, cfg *MySQLConfig) (*Client, error) {
	location := fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	client, err := open(ctx, MySQL, cfg.DSN(), cfg.TableName, location)
	if err != nil {
		return nil, fmt.Errorf("NewMySQL: %w", err)
	}
	return client, nil
}
