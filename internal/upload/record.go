package upload

import (
	"context"
	"time"
)

// Record describes one stored upload. It is the JSON body returned by the
// upload endpoints.
type Record struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	Filename   string `json:"filename"`
	StoredPath string `json:"stored_path"`
	SizeBytes  int64  `json:"size_bytes"`
	MimeType   string `json:"mime_type"`
	Message    string `json:"message"`
}

// Entry is a Record as kept by a Catalog.
type Entry struct {
	Record
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows Catalog.List. A zero Kind lists every kind.
type Filter struct {
	Kind  Kind
	Limit int
}

// Catalog is an optional metadata index of accepted uploads.
type Catalog interface {
	Record(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context, f Filter) ([]Entry, error)
	Ping(ctx context.Context) error
}
