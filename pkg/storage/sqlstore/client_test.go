package sqlstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-assistant/avamem-go/pkg/storage"
	"github.com/ava-assistant/avamem-go/pkg/storage/sqlstore"
)

func newSQLite(t *testing.T) (*sqlstore.Client, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "memory.db")
	c, err := sqlstore.NewSQLite(context.Background(), &sqlstore.SQLiteConfig{DBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dbPath
}

func TestSQLiteEmptyTable(t *testing.T) {
	c, _ := newSQLite(t)

	facts, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	c, _ := newSQLite(t)

	facts := []storage.Fact{
		storage.NewFact("The user's favorite color is blue.", []float64{0.1, 0.2, 0.3}),
		storage.NewFact("The user has a dog named Max.", []float64{0.4, 0.5, 0.6}),
		storage.NewFact("The user lives in Brno.", []float64{0.7, 0.8, 0.9}),
	}
	require.NoError(t, c.Save(ctx, facts))

	loaded, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i := range facts {
		assert.Equal(t, facts[i].Text, loaded[i].Text)
		assert.Equal(t, facts[i].Embedding, loaded[i].Embedding)
		assert.True(t, facts[i].CreatedAt.Equal(loaded[i].CreatedAt))
	}

	// A shorter save replaces the previous rows.
	require.NoError(t, c.Save(ctx, facts[:1]))
	loaded, err = c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, facts[0].Text, loaded[0].Text)
}

func TestSQLitePreservesMalformedEmbedding(t *testing.T) {
	ctx := context.Background()
	c, dbPath := newSQLite(t)

	require.NoError(t, c.Save(ctx, []storage.Fact{storage.NewFact("ok", []float64{1, 0})}))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	_, err = db.Exec(`INSERT INTO facts (position, text, embedding, created_at) VALUES (1, 'broken', 'not json', NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO facts (position, text, embedding, created_at) VALUES (2, 'absent', NULL, NULL)`)
	require.NoError(t, err)

	loaded, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.True(t, loaded[0].Valid())
	assert.False(t, loaded[1].Valid())
	assert.False(t, loaded[2].Valid())

	require.NoError(t, c.Save(ctx, append(loaded, storage.NewFact("new", []float64{0, 1}))))

	var raw sql.NullString
	require.NoError(t, db.QueryRow(`SELECT embedding FROM facts WHERE position = 1`).Scan(&raw))
	assert.Equal(t, "not json", raw.String)
	require.NoError(t, db.QueryRow(`SELECT embedding FROM facts WHERE position = 2`).Scan(&raw))
	assert.False(t, raw.Valid)
}

func TestSQLiteWithStore(t *testing.T) {
	ctx := context.Background()
	c, dbPath := newSQLite(t)

	s := storage.NewStore(c, nil)
	s.Load(ctx)
	require.NoError(t, s.AppendAndPersist(ctx, storage.NewFact("first", []float64{1})))
	require.NoError(t, s.AppendAndPersist(ctx, storage.NewFact("second", []float64{2})))

	reopened, err := sqlstore.NewSQLite(ctx, &sqlstore.SQLiteConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	s2 := storage.NewStore(reopened, nil)
	assert.Equal(t, 2, s2.Load(ctx))
	assert.Equal(t, "first", s2.Snapshot()[0].Text)
	assert.Equal(t, "second", s2.Snapshot()[1].Text)
}

func TestSQLiteDescribe(t *testing.T) {
	c, dbPath := newSQLite(t)
	assert.Equal(t, "sqlite:"+dbPath, c.Describe())
}

func TestInvalidTableName(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memory.db")
	_, err := sqlstore.NewSQLite(context.Background(), &sqlstore.SQLiteConfig{
		DBPath:    dbPath,
		TableName: "facts; DROP TABLE x",
	})
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	pg := &sqlstore.PostgresConfig{Host: "localhost", Port: 5432, User: "ava", Password: "pw", DBName: "ava"}
	assert.Equal(t, "host=localhost port=5432 user=ava password=pw dbname=ava sslmode=disable", pg.DSN())

	my := &sqlstore.MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Password: "pw", DBName: "ava"}
	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/ava?parseTime=true&charset=utf8mb4", my.DSN())
}
