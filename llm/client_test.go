package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c360studio/applyflow/llm"
	_ "github.com/c360studio/applyflow/llm/providers" // Register providers
	"github.com/c360studio/applyflow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRegistry builds a registry whose fast capability points at the given server.
func testRegistry(serverURL string) *model.Registry {
	return model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityFast: {
				Description: "Test capability",
				Preferred:   []string{"test-model"},
			},
		},
		map[string]*model.EndpointConfig{
			"test-model": {
				Provider: "ollama",
				URL:      serverURL,
				Model:    "test-model",
			},
		},
	)
}

func okResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1677652288,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(okResponse(`{"action":"fill","value":"Jane Doe"}`))
	}))
	defer server.Close()

	client := llm.NewClient(testRegistry(server.URL))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "fast",
		Messages: []llm.Message{
			{Role: "user", Content: "Decide the field"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"action":"fill","value":"Jane Doe"}`, resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.NotEmpty(t, resp.RequestID)
}

func TestClient_Complete_RetryOnTransientError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Service temporarily unavailable"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(okResponse("Success after retries"))
	}))
	defer server.Close()

	client := llm.NewClient(testRegistry(server.URL), llm.WithRetryConfig(llm.RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 1.0,
		MaxBackoff:        5 * time.Millisecond,
	}))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "fast",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Success after retries", resp.Content)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_Complete_FatalErrorNoRetry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid api key"))
	}))
	defer server.Close()

	client := llm.NewClient(testRegistry(server.URL))

	_, err := client.Complete(context.Background(), llm.Request{
		Capability: "fast",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})

	require.Error(t, err)
	assert.True(t, llm.IsFatal(err), "auth errors should be fatal")
	assert.Equal(t, int32(1), attempts.Load(), "fatal errors must not be retried")
}

func TestClient_Complete_FallbackToSecondModel(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(okResponse("from fallback"))
	}))
	defer good.Close()

	registry := model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityFast: {
				Preferred: []string{"primary"},
				Fallback:  []string{"secondary"},
			},
		},
		map[string]*model.EndpointConfig{
			"primary":   {Provider: "ollama", URL: bad.URL, Model: "primary"},
			"secondary": {Provider: "ollama", URL: good.URL, Model: "secondary"},
		},
	)

	client := llm.NewClient(registry, llm.WithRetryConfig(llm.RetryConfig{
		MaxAttempts:       1,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 1.0,
		MaxBackoff:        time.Millisecond,
	}))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "fast",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)
}

func TestClient_Complete_Validation(t *testing.T) {
	client := llm.NewClient(model.NewDefaultRegistry())

	_, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	assert.Error(t, err, "missing capability should fail")

	_, err = client.Complete(context.Background(), llm.Request{
		Capability: "fast",
	})
	assert.Error(t, err, "missing messages should fail")
}
