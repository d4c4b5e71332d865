package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhav1874/TrueVail/internal/config"
)

func setupTestOllamaClient(serverURL, visionModel string) (*OllamaClient, *test.Hook) {
	cfg := &config.Config{
		OllamaBaseURL:     serverURL + "/v1",
		OllamaModel:       "llama-test",
		OllamaVisionModel: visionModel,
		OllamaAPIKey:      "ollama",
		BackendTimeout:    5 * time.Second,
	}
	log, hook := test.NewNullLogger()
	client := NewOllamaClient(cfg)
	client.logger = log
	return client, hook
}

func writeChatCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "llama-test",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]interface{}{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
	})
}

func TestOllamaClient_GenerateContent_Text(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer ollama", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama-test", body["model"])
		messages := body["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
		assert.Equal(t, "Classify: hello", messages[1].(map[string]interface{})["content"])

		writeChatCompletion(w, " Status: Likely Fake \n")
	}))
	defer server.Close()

	client, hook := setupTestOllamaClient(server.URL, "")

	text, err := client.GenerateContent(context.Background(), GenerateRequest{System: "sys", Prompt: "Classify: hello"})

	require.NoError(t, err)
	assert.Equal(t, "Status: Likely Fake", text)
	assert.Equal(t, "Self-hosted LLM response received", hook.LastEntry().Message)
}

func TestOllamaClient_GenerateContent_Vision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llava-test", body["model"])

		messages := body["messages"].([]interface{})
		parts := messages[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, parts, 2)
		image := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
		assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/jpeg;base64,"))

		writeChatCompletion(w, "Status: Likely Deepfake")
	}))
	defer server.Close()

	client, _ := setupTestOllamaClient(server.URL, "llava-test")
	assert.True(t, client.SupportsVision())

	text, err := client.GenerateContent(context.Background(), GenerateRequest{
		Prompt:    "Is this manipulated?",
		Media:     []byte{0xff, 0xd8, 0xff},
		MediaType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.Equal(t, "Status: Likely Deepfake", text)
}

func TestOllamaClient_VisionDisabled(t *testing.T) {
	client, _ := setupTestOllamaClient("http://127.0.0.1:1", "")

	_, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "x", Media: []byte{1}, MediaType: "image/png"})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, client.SupportsVision())
}

func TestOllamaClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"too many requests","type":"rate_limit"}}`))
	}))
	defer server.Close()

	client, _ := setupTestOllamaClient(server.URL, "")

	_, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "x"})

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.RateLimited())
}

func TestOllamaClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, _ := setupTestOllamaClient(url, "")

	_, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "x"})

	require.Error(t, err)
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestOllamaClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	client, _ := setupTestOllamaClient(server.URL, "")

	_, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "x"})

	assert.ErrorIs(t, err, ErrEmptyResponse)
}
