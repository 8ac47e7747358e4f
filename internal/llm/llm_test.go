package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argos/internal/config"
)

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("ARGOS_TEST_LLM_KEY", "")
	_, err := New(config.LLMConfig{Provider: "anthropic", APIKeyEnv: "ARGOS_TEST_LLM_KEY"})
	assert.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	t.Setenv("ARGOS_TEST_LLM_KEY", "k")
	c, err := New(config.LLMConfig{Provider: "anthropic", APIKeyEnv: "ARGOS_TEST_LLM_KEY", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, c)

	c, err = New(config.LLMConfig{Provider: "openai", APIKeyEnv: "ARGOS_TEST_LLM_KEY", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, c)

	_, err = New(config.LLMConfig{Provider: "bard", APIKeyEnv: "ARGOS_TEST_LLM_KEY"})
	assert.Error(t, err)
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req openaiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, "prompt text", req.Messages[0].Content)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"bullish"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/", Model: "gpt-test"})
	out, err := c.Complete(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "bullish", out)
}

func TestOpenAIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bad" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(OpenAIConfig{APIKey: "bad", BaseURL: srv.URL}).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "401")
	_, err = NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "empty")
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "The euro "}, {"type": "text", "text": "looks weak."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	c := NewAnthropic(AnthropicConfig{APIKey: "k", BaseURL: srv.URL, Model: "claude-test"})
	out, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "The euro looks weak.", out)
}
