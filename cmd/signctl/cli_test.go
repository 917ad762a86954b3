package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

type fakeBackend struct {
	images  []string
	rec     domain.AnalysisRecord
	err     error
	history []domain.AnalysisRecord

	gotImage   string
	gotContext string
	closed     bool
}

func (f *fakeBackend) Images(context.Context) ([]string, error) { return f.images, f.err }

func (f *fakeBackend) Analyze(_ context.Context, image, c string) (domain.AnalysisRecord, error) {
	f.gotImage, f.gotContext = image, c
	return f.rec, f.err
}

func (f *fakeBackend) History(context.Context, int, int) ([]domain.AnalysisRecord, error) {
	return f.history, f.err
}

func (f *fakeBackend) Close() error { f.closed = true; return nil }

func execute(t *testing.T, b Backend, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func(context.Context, *options) (Backend, error) { return b, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImagesCmd(t *testing.T) {
	b := &fakeBackend{images: []string{"image-1.jpg", "image-2.png"}}
	out, err := execute(t, b, "images")
	require.NoError(t, err)
	assert.Equal(t, "image-1.jpg\nimage-2.png\n", out)
	assert.True(t, b.closed)

	out, err = execute(t, &fakeBackend{images: []string{}}, "images")
	require.NoError(t, err)
	assert.Contains(t, out, "No images found.")
}

func TestAnalyzeCmd_EmptyPrecautionRendersNoWarning(t *testing.T) {
	b := &fakeBackend{rec: domain.AnalysisRecord{
		ImageKey:        "inputs/image-1.jpg",
		SignDescription: "Stop sign",
		Context:         "rainy, 60 km/h",
	}}
	out, err := execute(t, b, "analyze", "image-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image-1.jpg", b.gotImage)
	assert.Equal(t, domain.DefaultContext, b.gotContext)
	assert.Contains(t, out, "Sign:        Stop sign")
	assert.Contains(t, out, "Precaution:  "+domain.NoWarningText)
}

func TestAnalyzeCmd_ContextFlagAndError(t *testing.T) {
	b := &fakeBackend{err: errors.New("gateway returned status 500: internal error")}
	_, err := execute(t, b, "analyze", "image-1.jpg", "--context", "foggy, 30 km/h")
	require.Error(t, err)
	assert.Equal(t, "foggy, 30 km/h", b.gotContext)
	assert.Contains(t, err.Error(), "500")

	_, err = execute(t, b, "analyze")
	assert.Error(t, err)
}

func TestHistoryCmd(t *testing.T) {
	b := &fakeBackend{history: []domain.AnalysisRecord{
		{ImageKey: "inputs/a.jpg", SignDescription: "Yield", PrecautionWarning: "Give way.", Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}}
	out, err := execute(t, b, "history", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Give way.")
	assert.Contains(t, out, "2024-05-01T10:00:00.000000Z")
}

func TestSession_TracksSelection(t *testing.T) {
	b := &fakeBackend{images: []string{"a.jpg"}, rec: domain.AnalysisRecord{SignDescription: "Stop"}}
	s := NewSession(b)

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, s.Candidates)

	_, err = s.Analyze(context.Background(), "a.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", s.Selected)
	require.NotNil(t, s.Last)
	assert.Equal(t, "Stop", s.Last.SignDescription)
}

func TestGatewayBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"image_key":"inputs/a.jpg","sign_description":"Stop","precaution_warning":"","timestamp":"2024-05-01T10:00:00.000000Z"}`))
	}))
	defer srv.Close()

	out, err := execute(t, newGatewayBackend(srv.URL, "", time.Second), "analyze", "a.jpg")
	require.NoError(t, err)
	assert.Contains(t, out, domain.NoWarningText)

	_, err = newGatewayBackend(srv.URL, "", time.Second).History(context.Background(), 1, 20)
	assert.ErrorIs(t, err, errHistoryViaGateway)
}
