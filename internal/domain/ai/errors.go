package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrMalformedResponse indicates the provider answered without a content block.
var ErrMalformedResponse = errors.New("ai response has no content")
