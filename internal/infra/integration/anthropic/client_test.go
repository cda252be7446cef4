package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

func messageJSON(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       DefaultModel,
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  120,
			"output_tokens": 40,
		},
	}
}

func TestComplete_ReturnsText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultModel, body["model"])
		system, _ := body["system"].([]any)
		require.Len(t, system, 1)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageJSON("```json\n{\"name\": \"Ana\"}\n```"))
	}))
	defer ts.Close()

	c := NewClient("test-key", ts.URL)
	out, err := c.Complete(context.Background(), usecase.CompletionRequest{
		Instruction: "extract",
		Input:       "Caller: I'm Ana",
	})

	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Ana"`)
}

func TestComplete_ErrorStatusIsNotRetried(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer ts.Close()

	_, err := NewClient("test-key", ts.URL).Complete(context.Background(), usecase.CompletionRequest{Input: "x"})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestComplete_EmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageJSON("   "))
	}))
	defer ts.Close()

	_, err := NewClient("test-key", ts.URL).Complete(context.Background(), usecase.CompletionRequest{Input: "x"})
	assert.Error(t, err)
}
