package middleware

import (
	"fmt"
	"net/http"
	"path"
	"strings"
)

// MaxBodyBytes batas ukuran body request
const MaxBodyBytes = 1 << 20

const maxKeyLen = 1024

// ValidateImageKey checks an image key or bare filename supplied by a client.
func ValidateImageKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("image_key is required")
	}
	if len(key) > maxKeyLen {
		return fmt.Errorf("image_key too long (max %d bytes)", maxKeyLen)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("image_key must be relative")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return fmt.Errorf("path traversal detected")
		}
	}
	for _, r := range key {
		if r < 32 || r == 127 {
			return fmt.Errorf("invalid characters in image_key")
		}
	}
	if path.Base(key) == "." {
		return fmt.Errorf("image_key has no filename")
	}
	return nil
}

// ValidateContext rejects a driving context containing NUL bytes. Anything
// else is passed to the workflow as given.
func ValidateContext(c string) error {
	if strings.ContainsRune(c, 0) {
		return fmt.Errorf("context contains NUL bytes")
	}
	if len(c) > maxKeyLen {
		return fmt.Errorf("context too long (max %d bytes)", maxKeyLen)
	}
	return nil
}

// ValidateLimit validates pagination page size
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates pagination page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// LimitBody caps the request body at MaxBodyBytes.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
