package storage_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-assistant/avamem-go/pkg/storage"
)

func TestDecodeFacts(t *testing.T) {
	t.Run("sequence of records", func(t *testing.T) {
		doc := `[
			{"text": "The user's favorite color is blue.", "embedding": [0.1, 0.2, 0.3]},
			{"text": "The user has a dog named Max.", "embedding": [0.3, 0.2, 0.1], "created_at": "2024-05-01T10:00:00Z"}
		]`

		facts, err := storage.DecodeFacts([]byte(doc))
		require.NoError(t, err)
		require.Len(t, facts, 2)

		assert.Equal(t, "The user's favorite color is blue.", facts[0].Text)
		assert.Equal(t, []float64{0.1, 0.2, 0.3}, facts[0].Embedding)
		assert.True(t, facts[0].CreatedAt.IsZero())
		assert.True(t, facts[0].Valid())

		assert.Equal(t, "The user has a dog named Max.", facts[1].Text)
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), facts[1].CreatedAt.UTC())
	})

	t.Run("empty sequence", func(t *testing.T) {
		facts, err := storage.DecodeFacts([]byte("[]"))
		require.NoError(t, err)
		assert.Empty(t, facts)
	})

	t.Run("object instead of sequence", func(t *testing.T) {
		_, err := storage.DecodeFacts([]byte(`{"text": "x"}`))
		assert.ErrorIs(t, err, storage.ErrStoreCorrupt)
		assert.Contains(t, err.Error(), "an object")
	})

	t.Run("unparseable", func(t *testing.T) {
		_, err := storage.DecodeFacts([]byte(`[{"text": "x",`))
		assert.ErrorIs(t, err, storage.ErrStoreCorrupt)
	})

	t.Run("blank document", func(t *testing.T) {
		_, err := storage.DecodeFacts([]byte("  \n"))
		assert.ErrorIs(t, err, storage.ErrStoreCorrupt)
	})
}

func TestDecodeFactsDamagedRecords(t *testing.T) {
	const good = `{"text": "I like coffee", "embedding": [1, 0]}`

	tests := []struct {
		name      string
		record    string
		text      string
		valid     bool
		badTime   bool
		writeBack interface{}
	}{
		{
			name:      "bad created_at",
			record:    `{"text": "I own a dog", "embedding": [0, 1], "created_at": "yesterday"}`,
			text:      "I own a dog",
			valid:     true,
			badTime:   true,
			writeBack: map[string]interface{}{"text": "I own a dog", "embedding": []interface{}{0.0, 1.0}, "created_at": "yesterday"},
		},
		{
			name:      "numeric created_at",
			record:    `{"text": "I own a dog", "embedding": [0, 1], "created_at": 17}`,
			text:      "I own a dog",
			valid:     true,
			badTime:   true,
			writeBack: map[string]interface{}{"text": "I own a dog", "embedding": []interface{}{0.0, 1.0}, "created_at": 17.0},
		},
		{
			name:      "numeric text",
			record:    `{"text": 42, "embedding": [0, 1]}`,
			writeBack: map[string]interface{}{"text": 42.0, "embedding": []interface{}{0.0, 1.0}},
		},
		{
			name:      "stray string",
			record:    `"just a string"`,
			writeBack: "just a string",
		},
		{
			name:      "nested array",
			record:    `[1, 2]`,
			writeBack: []interface{}{1.0, 2.0},
		},
		{
			name:      "null element",
			record:    `null`,
			writeBack: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, err := storage.DecodeFacts([]byte("[" + good + ", " + tt.record + "]"))
			require.NoError(t, err)
			require.Len(t, facts, 2)

			assert.True(t, facts[0].Valid())
			assert.Equal(t, "I like coffee", facts[0].Text)

			damaged := facts[1]
			assert.Equal(t, tt.text, damaged.Text)
			assert.Equal(t, tt.valid, damaged.Valid())
			assert.Equal(t, tt.badTime, damaged.BadTimestamp())
			if tt.badTime {
				assert.True(t, damaged.CreatedAt.IsZero())
			}
			if !tt.valid {
				assert.ErrorIs(t, damaged.Check(), storage.ErrRecordIncomplete)
			}

			out, err := storage.EncodeFacts(append(facts, storage.NewFact("new", []float64{1, 1})), "    ")
			require.NoError(t, err)

			var generic []interface{}
			require.NoError(t, json.Unmarshal(out, &generic))
			require.Len(t, generic, 3)
			assert.Equal(t, "I like coffee", generic[0].(map[string]interface{})["text"])
			assert.Equal(t, tt.writeBack, generic[1])
			assert.Equal(t, "new", generic[2].(map[string]interface{})["text"])
		})
	}
}

func TestFactIncompleteEmbeddings(t *testing.T) {
	doc := `[
		{"text": "missing"},
		{"text": "null", "embedding": null},
		{"text": "empty", "embedding": []},
		{"text": "garbled", "embedding": "not-a-vector"}
	]`

	facts, err := storage.DecodeFacts([]byte(doc))
	require.NoError(t, err)
	require.Len(t, facts, 4)

	for _, f := range facts {
		assert.False(t, f.Valid(), f.Text)
		assert.ErrorIs(t, f.Check(), storage.ErrRecordIncomplete, f.Text)
	}
}

func TestFactMalformedEmbeddingSurvivesRewrite(t *testing.T) {
	doc := `[{"text": "garbled", "embedding": {"oops": true}}, {"text": "fine", "embedding": [1, 0]}]`

	facts, err := storage.DecodeFacts([]byte(doc))
	require.NoError(t, err)

	facts = append(facts, storage.NewFact("new", []float64{0, 1}))

	out, err := storage.EncodeFacts(facts, "    ")
	require.NoError(t, err)

	var generic []map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &generic))
	require.Len(t, generic, 3)
	assert.Equal(t, map[string]interface{}{"oops": true}, generic[0]["embedding"])
	assert.Equal(t, []interface{}{1.0, 0.0}, generic[1]["embedding"])
	assert.Equal(t, "new", generic[2]["text"])
	assert.Contains(t, generic[2], "created_at")

	again, err := storage.DecodeFacts(out)
	require.NoError(t, err)
	assert.False(t, again[0].Valid())
	assert.True(t, again[1].Valid())
}

func TestEncodeFactsEmpty(t *testing.T) {
	out, err := storage.EncodeFacts(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestFactFromRecord(t *testing.T) {
	f := storage.FactFromRecord("text", []byte("[0.5, 0.5]"), time.Time{})
	assert.True(t, f.Valid())
	assert.Equal(t, []float64{0.5, 0.5}, f.Embedding)

	f = storage.FactFromRecord("text", nil, time.Time{})
	assert.False(t, f.Valid())
	raw, err := f.EmbeddingJSON()
	require.NoError(t, err)
	assert.Nil(t, raw)

	f = storage.FactFromRecord("text", []byte("[1, \"x\"]"), time.Time{})
	assert.False(t, f.Valid())
	raw, err = f.EmbeddingJSON()
	require.NoError(t, err)
	assert.Equal(t, `[1, "x"]`, string(raw))
}
