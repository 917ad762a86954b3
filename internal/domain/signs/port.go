package signs

import "context"

// ImageSource port untuk object store gambar
type ImageSource interface {
	// List returns raw object keys directly under prefix (single listing call).
	List(ctx context.Context, prefix string) ([]string, error)
	// Fetch returns the object's bytes. Failures wrap ErrSourceNotFound.
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// RecordStore port (interface untuk persistence hasil analisa)
type RecordStore interface {
	Put(ctx context.Context, rec AnalysisRecord) error
	Latest(ctx context.Context, page, pageSize int) ([]AnalysisRecord, error)
}
