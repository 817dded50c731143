package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-assistant/avamem-go/pkg/llm"
	"github.com/ava-assistant/avamem-go/pkg/llm/ollama"
)

func chatServer(t *testing.T, content string, inspect func(body map[string]interface{})) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])
		if inspect != nil {
			inspect(body)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   "llama3.1",
			"message": map[string]interface{}{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
}

func TestOllamaGenerateWithMessages(t *testing.T) {
	server := chatServer(t, "Hi, I'm Ava.", func(body map[string]interface{}) {
		msgs := body["messages"].([]interface{})
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
		assert.NotContains(t, body, "format")
	})
	defer server.Close()

	c, err := ollama.NewClient(&ollama.Config{BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := c.GenerateWithMessages(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are Ava."},
		{Role: llm.RoleUser, Content: "Hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi, I'm Ava.", reply)
}

func TestOllamaGenerateStructuredSendsFormat(t *testing.T) {
	server := chatServer(t, `{"should_save": false, "extracted_fact": ""}`, func(body map[string]interface{}) {
		format := body["format"].(map[string]interface{})
		assert.Equal(t, "object", format["type"])
		assert.Contains(t, format["properties"], "should_save")
	})
	defer server.Close()

	c, err := ollama.NewClient(&ollama.Config{BaseURL: server.URL})
	require.NoError(t, err)

	out, err := c.GenerateStructured(context.Background(), "classify", &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"should_save":    {Type: llm.TypeBoolean},
			"extracted_fact": {Type: llm.TypeString},
		},
		Required: []string{"should_save", "extracted_fact"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"should_save": false, "extracted_fact": ""}`, out)
}

func TestOllamaEmptyReply(t *testing.T) {
	server := chatServer(t, "", nil)
	defer server.Close()

	c, err := ollama.NewClient(&ollama.Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestOllamaOutputCapOnlyWhenRequested(t *testing.T) {
	tests := []struct {
		name string
		opts []llm.GenerateOption
		want interface{}
	}{
		{name: "no cap by default", opts: nil, want: nil},
		{name: "explicit cap", opts: []llm.GenerateOption{llm.WithMaxTokens(64)}, want: float64(64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := chatServer(t, "ok", func(body map[string]interface{}) {
				options := body["options"].(map[string]interface{})
				assert.Equal(t, tt.want, options["num_predict"])
			})
			defer server.Close()

			c, err := ollama.NewClient(&ollama.Config{BaseURL: server.URL})
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), "hello", tt.opts...)
			require.NoError(t, err)
		})
	}
}
