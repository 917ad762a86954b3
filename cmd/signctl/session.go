package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

// Backend is what the CLI talks to: the workflow in-process or the gateway.
type Backend interface {
	Images(ctx context.Context) ([]string, error)
	Analyze(ctx context.Context, image, drivingContext string) (domain.AnalysisRecord, error)
	History(ctx context.Context, page, pageSize int) ([]domain.AnalysisRecord, error)
	Close() error
}

// Session holds the state of one CLI run: candidates, selection, last result.
type Session struct {
	backend Backend

	Candidates []string
	Selected   string
	Last       *domain.AnalysisRecord
}

func NewSession(b Backend) *Session {
	return &Session{backend: b}
}

// Refresh reloads the candidate list.
func (s *Session) Refresh(ctx context.Context) ([]string, error) {
	c, err := s.backend.Images(ctx)
	if err != nil {
		return nil, err
	}
	s.Candidates = c
	return c, nil
}

// Analyze selects image and runs one analysis.
func (s *Session) Analyze(ctx context.Context, image, drivingContext string) (domain.AnalysisRecord, error) {
	s.Selected = image
	rec, err := s.backend.Analyze(ctx, image, drivingContext)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}
	s.Last = &rec
	return rec, nil
}

func renderRecord(w io.Writer, rec domain.AnalysisRecord) {
	warning := rec.PrecautionWarning
	if strings.TrimSpace(warning) == "" {
		warning = domain.NoWarningText
	}
	fmt.Fprintf(w, "Image:       %s\n", rec.ImageKey)
	fmt.Fprintf(w, "Context:     %s\n", rec.Context)
	fmt.Fprintf(w, "Sign:        %s\n", rec.SignDescription)
	fmt.Fprintf(w, "Precaution:  %s\n", warning)
	if !rec.Timestamp.IsZero() {
		fmt.Fprintf(w, "Analyzed at: %s\n", rec.TimestampString())
	}
}
