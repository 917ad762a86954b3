package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
)

// Client is a deterministic, no-network model for local runs and CI.
// Image requests get a description derived from the image hash; text-only
// requests get a fixed precaution.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) Converse(_ context.Context, req ai.Request) (ai.Response, error) {
	for _, m := range req.Messages {
		for _, b := range m.Content {
			if b.Image != nil {
				sum := sha256.Sum256(b.Image.Bytes)
				return ai.NewTextResponse(fmt.Sprintf("Stub sign %s (%s)", hex.EncodeToString(sum[:4]), b.Image.Format)), nil
			}
		}
	}
	return ai.NewTextResponse("Reduce speed and stay alert. " + firstLine(req)), nil
}

func firstLine(req ai.Request) string {
	if len(req.Messages) == 0 || len(req.Messages[0].Content) == 0 {
		return ""
	}
	line, _, _ := strings.Cut(req.Messages[0].Content[0].Text, "\n")
	if len(line) > 80 {
		line = line[:80]
	}
	return strings.TrimSpace(line)
}
