package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/ai/prompt"
)

func TestConverse_ImageRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Speed Limit 60 "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "gpt-4o-mini", srv.URL+"/v1")
	resp, err := c.Converse(context.Background(), prompt.DescribeRequest("amazon.nova-lite-v1:0", "jpeg", []byte("img")))
	require.NoError(t, err)

	text, err := resp.FirstText()
	require.NoError(t, err)
	assert.Equal(t, "Speed Limit 60", text)
	assert.Equal(t, "stop", resp.StopReason)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 50, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "data:image/jpeg;base64,"))
}

func TestConverse_TextRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Slow down."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "gpt-4o-mini", srv.URL+"/v1")
	_, err := c.Converse(context.Background(), prompt.PrecautionRequest("", "Stop", "rainy, 60 km/h"))
	require.NoError(t, err)

	msgs := got["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].(string)
	assert.Contains(t, content, "rainy, 60 km/h")
	assert.EqualValues(t, 100, got["max_tokens"])
}

func TestConverse_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "gpt-4o-mini", srv.URL+"/v1")
	_, err := c.Converse(context.Background(), prompt.PrecautionRequest("", "Stop", "dry"))
	assert.True(t, errors.Is(err, ai.ErrQuotaExceeded))
}

func TestConverse_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "gpt-4o-mini", srv.URL+"/v1")
	_, err := c.Converse(context.Background(), prompt.PrecautionRequest("", "Stop", "dry"))
	assert.True(t, errors.Is(err, ai.ErrMalformedResponse))
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("gpt-5"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
}
