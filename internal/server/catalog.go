package server

import (
	"errors"
	"net/http"
	"strconv"

	"upload-service/internal/upload"
)

type listResp struct {
	Uploads []upload.Entry `json:"uploads"`
	Count   int            `json:"count"`
}

// handleGetUpload serves GET /uploads/{id}.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	entry, err := s.cfg.Catalog.Get(r.Context(), id)
	if errors.Is(err, upload.ErrNotFound) {
		writeError(w, http.StatusNotFound, "upload not found")
		return
	}
	if err != nil {
		s.logger.Error("catalog get failed", "rid", RequestIDFromContext(r.Context()), "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "catalog error")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleListUploads serves GET /uploads?kind=image|file&limit=N, newest first.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f upload.Filter
	if raw := q.Get("kind"); raw != "" {
		kind, err := upload.ParseKind(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "kind must be image or file")
			return
		}
		f.Kind = kind
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	entries, err := s.cfg.Catalog.List(r.Context(), f)
	if err != nil {
		s.logger.Error("catalog list failed", "rid", RequestIDFromContext(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "catalog error")
		return
	}
	if entries == nil {
		entries = []upload.Entry{}
	}
	writeJSON(w, http.StatusOK, listResp{Uploads: entries, Count: len(entries)})
}
