package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"upload-service/internal/storage"
)

const (
	defaultMimeType = "application/octet-stream"
	maxIDAttempts   = 5
	catalogTimeout  = 5 * time.Second
)

// Store is the persistence the service writes through.
type Store interface {
	Write(ctx context.Context, dir, name string, r io.Reader, limit int64) (string, int64, error)
}

// Options configures a Service.
type Options struct {
	MaxMB   int
	Store   Store
	Catalog Catalog // optional
	Logger  *log.Logger
	// NewID overrides identifier generation; nil uses NewID.
	NewID func() string
}

// Service validates and stores uploads.
type Service struct {
	maxMB   int
	store   Store
	catalog Catalog
	logger  *log.Logger
	newID   func() string
}

func NewService(opts Options) *Service {
	s := &Service{
		maxMB:   opts.MaxMB,
		store:   opts.Store,
		catalog: opts.Catalog,
		logger:  opts.Logger,
		newID:   opts.NewID,
	}
	if s.newID == nil {
		s.newID = NewID
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// MaxMB is the configured ceiling in mebibytes.
func (s *Service) MaxMB() int {
	return s.maxMB
}

// MaxBytes is the configured ceiling in bytes.
func (s *Service) MaxBytes() int64 {
	return int64(s.maxMB) * 1024 * 1024
}

// Accept checks filename against the kind's allowlist and stores body.
// Rejected uploads leave nothing in storage.
func (s *Service) Accept(ctx context.Context, kind Kind, filename, mimeType string, body io.Reader) (Record, error) {
	if !kind.Valid() {
		return Record{}, fmt.Errorf("unknown upload kind %q", kind)
	}

	ext := Extension(filename)
	if !kind.Allows(ext) {
		return Record{}, &UnsupportedTypeError{Kind: kind, Ext: ext}
	}

	var (
		id     string
		stored string
		n      int64
		err    error
	)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id = s.newID()
		stored, n, err = s.store.Write(ctx, kind.Dir(), id+ext, body, s.MaxBytes())
		if !errors.Is(err, storage.ErrExists) {
			break
		}
		s.logger.Warn("id collision, regenerating", "id", id, "kind", kind)
	}
	switch {
	case errors.Is(err, storage.ErrLimitExceeded):
		return Record{}, &TooLargeError{MaxMB: s.maxMB}
	case errors.Is(err, storage.ErrExists):
		return Record{}, fmt.Errorf("no free identifier after %d attempts", maxIDAttempts)
	case err != nil:
		return Record{}, fmt.Errorf("store upload: %w", err)
	}

	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	rec := Record{
		ID:         id,
		Kind:       kind,
		Filename:   filename,
		StoredPath: stored,
		SizeBytes:  n,
		MimeType:   mimeType,
		Message:    "uploaded",
	}

	if s.catalog != nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogTimeout)
		defer cancel()
		if err := s.catalog.Record(cctx, rec); err != nil {
			s.logger.Error("catalog record failed", "id", rec.ID, "err", err)
		}
	}

	return rec, nil
}
