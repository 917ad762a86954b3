package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

func TestAnalyze_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/analyze", r.URL.Path)
		assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))

		var body domain.AnalysisRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "image-1.jpg", body.ImageKey)
		assert.Equal(t, "foggy", body.Context)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a","image_key":"inputs/image-1.jpg","sign_description":"Stop sign","context":"foggy","precaution_warning":"Stop fully.","timestamp":"2024-05-01T10:00:00.000000Z"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k1", time.Second)
	res, err := c.Analyze(context.Background(), "image-1.jpg", "foggy")
	require.NoError(t, err)
	assert.Equal(t, "Stop sign", res.SignDescription)
	assert.Equal(t, "Stop fully.", res.PrecautionWarning)

	rec := res.Record()
	assert.Equal(t, 2024, rec.Timestamp.Year())
	assert.Equal(t, "inputs/image-1.jpg", rec.ImageKey)
}

func TestAnalyze_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).Analyze(context.Background(), "image-1.jpg", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "internal error")

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 20*time.Millisecond).Analyze(context.Background(), "image-1.jpg", "")
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.StatusCode)
	assert.Error(t, te.Err)
}

func TestAnalyze_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "", time.Second).Analyze(context.Background(), "image-1.jpg", "")
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.StatusCode)
}

func TestImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images", r.URL.Path)
		_, _ = w.Write([]byte(`{"images":["a.jpg","b.png"]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, "", time.Second).Images(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.png"}, got)
}

func TestImages_NullList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images":null}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, "", time.Second).Images(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
