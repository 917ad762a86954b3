package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
)

// Client adapts Gemini generateContent to the ai.Model port.
const DefaultModel = "gemini-2.0-flash"

type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. baseURL is optional and mainly useful for tests.
func NewClient(ctx context.Context, apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Converse(ctx context.Context, req ai.Request) (ai.Response, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		parts := make([]*genai.Part, 0, len(m.Content))
		for _, b := range m.Content {
			if b.Image != nil {
				parts = append(parts, genai.NewPartFromBytes(b.Image.Bytes, "image/"+b.Image.Format))
				continue
			}
			parts = append(parts, genai.NewPartFromText(b.Text))
		}
		var role genai.Role = genai.RoleUser
		if m.Role == ai.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Config.Temperature),
		MaxOutputTokens: int32(req.Config.MaxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return ai.Response{}, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return ai.Response{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return ai.Response{}, ai.ErrMalformedResponse
	}
	cand := result.Candidates[0]
	out := ai.NewTextResponse(cand.Content.Parts[0].Text)
	out.StopReason = string(cand.FinishReason)
	return out, nil
}
