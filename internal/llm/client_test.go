package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "openai", config: Config{Provider: "openai", APIKey: "k"}},
		{name: "anthropic", config: Config{Provider: "anthropic", APIKey: "k"}},
		{name: "gemini mixed case", config: Config{Provider: "Gemini", APIKey: "k"}},
		{name: "missing key", config: Config{Provider: "openai"}, wantErr: true},
		{name: "unknown provider", config: Config{Provider: "ollama", APIKey: "k"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func captureServer(t *testing.T, status int, response string, captured *map[string]any, req **http.Request) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if captured != nil {
			assert.NoError(t, json.Unmarshal(body, captured))
		}
		if req != nil {
			*req = r.Clone(context.Background())
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAnthropicComplete(t *testing.T) {
	var body map[string]any
	var req *http.Request
	server := captureServer(t, http.StatusOK,
		`{"id":"msg_1","content":[{"type":"text","text":"USD/IDR: 15000"}]}`, &body, &req)

	client, err := NewClient(Config{Provider: "anthropic", APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "system", "rates please")
	require.NoError(t, err)
	assert.Equal(t, "USD/IDR: 15000", text)

	assert.Equal(t, "/v1/messages", req.URL.Path)
	assert.Equal(t, "secret", req.Header.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", req.Header.Get("anthropic-version"))
	assert.Equal(t, "system", body["system"])
	assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
}

func TestOpenAIComplete(t *testing.T) {
	var body map[string]any
	var req *http.Request
	server := captureServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"USD/RUB = 90"}}]}`, &body, &req)

	client, err := NewClient(Config{Provider: "openai", APIKey: "secret", Model: "gpt-test", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "system", "rates please")
	require.NoError(t, err)
	assert.Equal(t, "USD/RUB = 90", text)

	assert.Equal(t, "/v1/chat/completions", req.URL.Path)
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Equal(t, "gpt-test", body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestGeminiComplete(t *testing.T) {
	var body map[string]any
	var req *http.Request
	server := captureServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"USD/THB "},{"text":"34.5"}]}}]}`, &body, &req)

	client, err := NewClient(Config{Provider: "gemini", APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "system", "rates please")
	require.NoError(t, err)
	assert.Equal(t, "USD/THB 34.5", text)

	assert.Equal(t, "/gemini-2.5-flash:generateContent", req.URL.Path)
	assert.Equal(t, "secret", req.URL.Query().Get("key"))
	assert.Contains(t, body, "tools")
	assert.Contains(t, body, "system_instruction")
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name          string
		response      string
		status        int
		wantRetryable bool
		wantRateLimit bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, response: `{}`, wantRateLimit: true, wantRetryable: true},
		{name: "bad request", status: http.StatusBadRequest, response: `{"error":"bad"}`},
		{name: "server error", status: http.StatusBadGateway, response: `oops`, wantRetryable: true},
		{name: "empty content", status: http.StatusOK, response: `{"choices":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := captureServer(t, tt.status, tt.response, nil, nil)
			client, err := NewClient(Config{Provider: "openai", APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "s", "p")
			require.Error(t, err)
			assert.Equal(t, tt.wantRetryable, common.IsRetryable(err))
			if tt.wantRateLimit {
				require.ErrorIs(t, err, common.ErrRateLimit)
			}
			if tt.status >= 400 && !tt.wantRateLimit {
				assert.True(t, strings.Contains(err.Error(), "status"))
			}
		})
	}
}
