package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
)

// Client adapts chat completions to the ai.Model port. Model overrides the
// request's ModelID; NewClient defaults it to gpt-4o-mini.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Converse(ctx context.Context, req ai.Request) (ai.Response, error) {
	model := req.ModelID
	if c.Model != "" {
		model = c.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	creq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toMessages(req.Messages),
		Temperature: req.Config.Temperature,
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(model) {
		creq.MaxCompletionTokens = req.Config.MaxTokens
		creq.Temperature = 0
	} else {
		creq.MaxTokens = req.Config.MaxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, creq)
	if err != nil {
		if isQuota(err) {
			return ai.Response{}, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return ai.Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ai.Response{}, ai.ErrMalformedResponse
	}

	out := ai.NewTextResponse(resp.Choices[0].Message.Content)
	out.StopReason = string(resp.Choices[0].FinishReason)
	return out, nil
}

func toMessages(msgs []ai.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == ai.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}

		if !hasImage(m) {
			var texts []string
			for _, b := range m.Content {
				texts = append(texts, b.Text)
			}
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: strings.Join(texts, "\n")})
			continue
		}

		parts := make([]openai.ChatMessagePart, 0, len(m.Content))
		for _, b := range m.Content {
			if b.Image != nil {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL(b.Image),
						Detail: openai.ImageURLDetailAuto,
					},
				})
				continue
			}
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: b.Text})
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return out
}

func hasImage(m ai.Message) bool {
	for _, b := range m.Content {
		if b.Image != nil {
			return true
		}
	}
	return false
}

func dataURL(img *ai.ImageBlock) string {
	return fmt.Sprintf("data:image/%s;base64,%s", img.Format, base64.StdEncoding.EncodeToString(img.Bytes))
}

func isReasoningModel(model string) bool {
	return strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5")
}

func isQuota(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
