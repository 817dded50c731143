package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-assistant/avamem-go/pkg/llm"
	"github.com/ava-assistant/avamem-go/pkg/llm/anthropic"
)

func messagesServer(t *testing.T, content []map[string]interface{}, inspect func(body map[string]interface{})) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if inspect != nil {
			inspect(body)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-sonnet-20240620",
			"content":     content,
			"stop_reason": "end_turn",
			"usage":       map[string]interface{}{"input_tokens": 10, "output_tokens": 5},
		})
	}))
}

func TestAnthropicSeparatesSystemPrompt(t *testing.T) {
	server := messagesServer(t,
		[]map[string]interface{}{{"type": "text", "text": "Hello from Ava."}},
		func(body map[string]interface{}) {
			system := body["system"].([]interface{})
			require.Len(t, system, 1)
			assert.Equal(t, "You are Ava.", system[0].(map[string]interface{})["text"])

			msgs := body["messages"].([]interface{})
			require.Len(t, msgs, 1)
			assert.Equal(t, "user", msgs[0].(map[string]interface{})["role"])
		})
	defer server.Close()

	c, err := anthropic.NewClient(&anthropic.Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := c.GenerateWithMessages(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are Ava."},
		{Role: llm.RoleUser, Content: "Hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello from Ava.", reply)
}

func TestAnthropicStructuredUsesForcedTool(t *testing.T) {
	server := messagesServer(t,
		[]map[string]interface{}{{
			"type":  "tool_use",
			"id":    "toolu_1",
			"name":  "classification",
			"input": map[string]interface{}{"should_save": true, "extracted_fact": "The user likes tea."},
		}},
		func(body map[string]interface{}) {
			choice := body["tool_choice"].(map[string]interface{})
			assert.Equal(t, "tool", choice["type"])
			assert.Equal(t, "classification", choice["name"])

			tools := body["tools"].([]interface{})
			require.Len(t, tools, 1)
			schema := tools[0].(map[string]interface{})["input_schema"].(map[string]interface{})
			assert.Equal(t, "object", schema["type"])
		})
	defer server.Close()

	c, err := anthropic.NewClient(&anthropic.Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := c.GenerateStructured(context.Background(), "classify", &llm.Schema{
		Name: "classification",
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"should_save":    {Type: llm.TypeBoolean},
			"extracted_fact": {Type: llm.TypeString},
		},
		Required: []string{"should_save", "extracted_fact"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"should_save": true, "extracted_fact": "The user likes tea."}`, out)
}

func TestAnthropicRequiresKey(t *testing.T) {
	_, err := anthropic.NewClient(&anthropic.Config{})
	assert.Error(t, err)
}

func TestAnthropicMaxTokens(t *testing.T) {
	tests := []struct {
		name string
		opts []llm.GenerateOption
		want float64
	}{
		{name: "fallback when unset", opts: nil, want: 1024},
		{name: "caller cap", opts: []llm.GenerateOption{llm.WithMaxTokens(200)}, want: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := messagesServer(t,
				[]map[string]interface{}{{"type": "text", "text": "ok"}},
				func(body map[string]interface{}) {
					assert.Equal(t, tt.want, body["max_tokens"])
				})
			defer server.Close()

			c, err := anthropic.NewClient(&anthropic.Config{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), "hi", tt.opts...)
			require.NoError(t, err)
		})
	}
}
