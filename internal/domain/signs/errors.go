package signs

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound indicates the referenced image could not be fetched.
	ErrSourceNotFound = errors.New("image source not found")

	// ErrInference indicates a model call failed or returned a malformed payload.
	ErrInference = errors.New("inference failed")

	// ErrInvalidRequest indicates the analysis request is unusable (e.g. empty image key).
	ErrInvalidRequest = errors.New("invalid analysis request")

	// ErrPersist indicates the result store rejected the record.
	ErrPersist = errors.New("persist analysis record")
)

// TransportError is returned by the gateway client when the HTTP call
// fails or the endpoint answers with a non-2xx status.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway transport error: %v", e.Err)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }
