package bedrock

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
)

// Client calls the Bedrock Runtime invoke-model API with the Nova messages
// schema, authenticated by a Bedrock API key.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// Endpoint returns the regional runtime endpoint.
func Endpoint(region string) string {
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region)
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type imageSource struct {
	Bytes string `json:"bytes"`
}

type image struct {
	Format string      `json:"format"`
	Source imageSource `json:"source"`
}

type contentBlock struct {
	Text  string `json:"text,omitempty"`
	Image *image `json:"image,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type invokeRequest struct {
	Messages        []message          `json:"messages"`
	InferenceConfig ai.InferenceConfig `json:"inferenceConfig"`
}

func (c *Client) Converse(ctx context.Context, req ai.Request) (ai.Response, error) {
	body, err := json.Marshal(toInvokeRequest(req))
	if err != nil {
		return ai.Response{}, fmt.Errorf("marshal invoke body: %w", err)
	}

	u := fmt.Sprintf("%s/model/%s/invoke", c.endpoint, url.PathEscape(req.ModelID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return ai.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ai.Response{}, fmt.Errorf("invoke model %s: %w", req.ModelID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ai.Response{}, fmt.Errorf("read invoke response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ai.Response{}, fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, strings.TrimSpace(string(raw)))
	}
	if resp.StatusCode/100 != 2 {
		return ai.Response{}, fmt.Errorf("invoke model %s: status %d: %s", req.ModelID, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out ai.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return ai.Response{}, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return out, nil
}

func toInvokeRequest(req ai.Request) invokeRequest {
	msgs := make([]message, 0, len(req.Messages))
	for _, m := range req.Messages {
		blocks := make([]contentBlock, 0, len(m.Content))
		for _, b := range m.Content {
			if b.Image != nil {
				blocks = append(blocks, contentBlock{Image: &image{
					Format: b.Image.Format,
					Source: imageSource{Bytes: base64.StdEncoding.EncodeToString(b.Image.Bytes)},
				}})
				continue
			}
			blocks = append(blocks, contentBlock{Text: b.Text})
		}
		msgs = append(msgs, message{Role: m.Role, Content: blocks})
	}
	return invokeRequest{Messages: msgs, InferenceConfig: req.Config}
}
