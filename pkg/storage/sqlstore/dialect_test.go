package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	query := "INSERT INTO facts (position, text, embedding, created_at) VALUES (?, ?, ?, ?)"

	assert.Equal(t, query, SQLite.rebind(query))
	assert.Equal(t, query, MySQL.rebind(query))
	assert.Equal(t,
		"INSERT INTO facts (position, text, embedding, created_at) VALUES ($1, $2, $3, $4)",
		Postgres.rebind(query))
}
