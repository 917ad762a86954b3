package ai

import (
	"context"
	"strings"
)

// Model is a request/response inference endpoint.
type Model interface {
	Converse(ctx context.Context, req Request) (Response, error)
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request carries a model id, the message list and the inference config.
type Request struct {
	ModelID  string
	Messages []Message
	Config   InferenceConfig
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock holds either Text or Image.
type ContentBlock struct {
	Text  string      `json:"text,omitempty"`
	Image *ImageBlock `json:"image,omitempty"`
}

// ImageBlock is a binary image payload; Format is "jpeg" or "png".
type ImageBlock struct {
	Format string `json:"format"`
	Bytes  []byte `json:"-"`
}

type InferenceConfig struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float32 `json:"temperature"`
}

// Response mirrors output.message.content[].
type Response struct {
	Output struct {
		Message Message `json:"message"`
	} `json:"output"`
	StopReason string `json:"stopReason,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(s string) ContentBlock { return ContentBlock{Text: s} }

// UserMessage builds a single user message from blocks.
func UserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// NewTextResponse builds a Response whose first content block is text.
func NewTextResponse(text string) Response {
	var r Response
	r.Output.Message = Message{Role: RoleAssistant, Content: []ContentBlock{{Text: text}}}
	return r
}

// FirstText returns the trimmed text of the first content block.
// A response without any content block is malformed.
func (r Response) FirstText() (string, error) {
	if len(r.Output.Message.Content) == 0 {
		return "", ErrMalformedResponse
	}
	return strings.TrimSpace(r.Output.Message.Content[0].Text), nil
}
