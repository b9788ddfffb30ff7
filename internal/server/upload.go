package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"upload-service/internal/upload"
)

// multipartEnvelope is the slack allowed on top of the file ceiling for
// boundaries, part headers, and other form fields.
const multipartEnvelope = 1 << 20

var errMissingFile = errors.New("missing file")

// uploadHandler handles POST /upload/image and POST /upload/file.
//
// The body must be multipart/form-data with the upload in the "file" field.
// The extension is checked before any content is read; the bytes are then
// streamed to storage under a fresh identifier. Responses:
//
//	200 upload.Record
//	400 not multipart, or no "file" part
//	413 larger than the configured ceiling
//	415 extension not on the kind's allowlist
//	500 storage failure
func (s *Server) uploadHandler(kind upload.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := RequestIDFromContext(r.Context())
		svc := s.cfg.Uploads
		tooLarge := &upload.TooLargeError{MaxMB: svc.MaxMB()}

		body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, svc.MaxBytes()+multipartEnvelope)}
		r.Body = body

		mr, err := r.MultipartReader()
		if err != nil {
			s.metrics.RecordRejection(kind, "bad_request")
			writeError(w, http.StatusBadRequest, "expected multipart/form-data body")
			return
		}

		part, err := nextFilePart(mr)
		if err != nil {
			if body.tripped {
				s.metrics.RecordRejection(kind, "too_large")
				writeError(w, http.StatusRequestEntityTooLarge, tooLarge.Error())
				return
			}
			s.metrics.RecordRejection(kind, "bad_request")
			if errors.Is(err, errMissingFile) {
				writeError(w, http.StatusBadRequest, `missing "file" field`)
				return
			}
			writeError(w, http.StatusBadRequest, "bad multipart body")
			return
		}
		defer func() { _ = part.Close() }()

		rec, err := svc.Accept(r.Context(), kind, part.FileName(), part.Header.Get("Content-Type"), part)
		if err != nil {
			switch {
			case errors.Is(err, upload.ErrUnsupportedType):
				s.metrics.RecordRejection(kind, "unsupported_type")
				writeError(w, http.StatusUnsupportedMediaType, err.Error())
			case errors.Is(err, upload.ErrTooLarge):
				s.metrics.RecordRejection(kind, "too_large")
				writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			case body.tripped:
				s.metrics.RecordRejection(kind, "too_large")
				writeError(w, http.StatusRequestEntityTooLarge, tooLarge.Error())
			default:
				s.metrics.RecordRejection(kind, "storage_error")
				s.logger.Error("upload failed", "rid", rid, "kind", kind, "filename", part.FileName(), "err", err)
				writeError(w, http.StatusInternalServerError, "upload failed")
			}
			return
		}

		s.metrics.RecordUpload(kind, rec.SizeBytes)
		s.logger.Info("upload stored",
			"rid", rid,
			"id", rec.ID,
			"kind", rec.Kind,
			"filename", rec.Filename,
			"bytes", rec.SizeBytes,
			"path", rec.StoredPath,
		)
		writeJSON(w, http.StatusOK, rec)
	})
}

// limitedBody remembers whether the whole-body cap was hit, whatever
// wrapping the error picked up on its way back.
type limitedBody struct {
	io.ReadCloser
	tripped bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		b.tripped = true
	}
	return n, err
}

// nextFilePart advances to the "file" part, skipping other fields.
// A "file" field without a filename is not an upload.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errMissingFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		if part.FileName() == "" {
			_ = part.Close()
			return nil, errMissingFile
		}
		return part, nil
	}
}
