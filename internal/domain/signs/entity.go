package signs

import (
	"path"
	"strings"
	"time"
)

const (
	// InputPrefix folder gambar di object store
	InputPrefix = "inputs/"

	// DefaultContext dipakai kalau caller tidak kirim context
	DefaultContext = "rainy, 60 km/h"

	// FallbackDescription replaces empty or "no sign" descriptions.
	FallbackDescription = "No clear traffic sign detected"

	// NoWarningText is what a renderer shows for an empty precaution. Never persisted.
	NoWarningText = "No warning available"

	// TimestampLayout is ISO-8601 UTC with microseconds and a Z suffix.
	TimestampLayout = "2006-01-02T15:04:05.000000Z"
)

// AnalysisRequest is one user action: which image, under which driving context.
type AnalysisRequest struct {
	ImageKey string `json:"image_key"`
	Context  string `json:"context"`
}

// AnalysisRecord unit yang disimpan ke result store, satu per analisa
type AnalysisRecord struct {
	ID                string    `json:"id"`
	ImageKey          string    `json:"image_key"`
	SignDescription   string    `json:"sign_description"`
	Context           string    `json:"context"`
	PrecautionWarning string    `json:"precaution_warning"`
	Timestamp         time.Time `json:"-"`
}

// TimestampString returns the record timestamp in TimestampLayout.
func (r AnalysisRecord) TimestampString() string {
	return FormatTimestamp(r.Timestamp)
}

// Item flattens the record into the field map written by "put item" stores.
func (r AnalysisRecord) Item() map[string]string {
	return map[string]string{
		"id":                 r.ID,
		"image_key":          r.ImageKey,
		"sign_description":   r.SignDescription,
		"context":            r.Context,
		"precaution_warning": r.PrecautionWarning,
		"timestamp":          r.TimestampString(),
	}
}

// RecordFromItem is the inverse of Item. A malformed timestamp leaves Timestamp zero.
func RecordFromItem(item map[string]string) AnalysisRecord {
	rec := AnalysisRecord{
		ID:                item["id"],
		ImageKey:          item["image_key"],
		SignDescription:   item["sign_description"],
		Context:           item["context"],
		PrecautionWarning: item["precaution_warning"],
	}
	if ts, err := ParseTimestamp(item["timestamp"]); err == nil {
		rec.Timestamp = ts
	}
	return rec
}

// FormatTimestamp formats t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and plain RFC3339.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// NormalizeDescription trims the model output and applies the fallback rule.
func NormalizeDescription(raw string) string {
	d := strings.TrimSpace(raw)
	if d == "" || strings.Contains(strings.ToLower(d), "no sign") {
		return FallbackDescription
	}
	return d
}

// NormalizeContext trims the driving context and defaults it when blank.
func NormalizeContext(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return DefaultContext
	}
	return c
}

// ResolveKey turns a bare filename into an object key under prefix.
// Keys that already contain a "/" are returned as is.
func ResolveKey(prefix, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "/") {
		return name
	}
	return prefix + name
}

// ImageFormat returns the inference image format for key: "jpeg" for .jpg, else "png".
func ImageFormat(key string) string {
	if strings.HasSuffix(strings.ToLower(key), ".jpg") {
		return "jpeg"
	}
	return "png"
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImageFile reports whether key has a .jpg, .jpeg or .png extension (any case).
func IsImageFile(key string) bool {
	return imageExts[strings.ToLower(path.Ext(key))]
}

// CandidateName strips any path prefix from an object key.
func CandidateName(key string) string {
	return path.Base(key)
}
