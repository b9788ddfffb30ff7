package server

import (
	"context"
	"net/http"
	"time"

	"upload-service/internal/upload"
)

// healthResp reports liveness together with the upload limits in force.
type healthResp struct {
	Status     string   `json:"status"`
	Time       string   `json:"time"`
	Version    string   `json:"version,omitempty"`
	Limits     limits   `json:"limits"`
	ImageTypes []string `json:"image_types"`
	FileTypes  []string `json:"file_types"`
}

type limits struct {
	MaxMB    int   `json:"max_mb"`
	MaxBytes int64 `json:"max_bytes"`
}

// ComponentStatus represents the health of an individual dependency.
type ComponentStatus string

const (
	ComponentStatusUp   ComponentStatus = "up"
	ComponentStatusDown ComponentStatus = "down"
)

// ComponentHealth is one entry of the readiness report.
type ComponentHealth struct {
	Status  ComponentStatus `json:"status"`
	Message string          `json:"message,omitempty"`
}

type readyResp struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// handleHealth serves GET /health. It never touches storage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	svc := s.cfg.Uploads
	writeJSON(w, http.StatusOK, healthResp{
		Status:  "ok",
		Time:    s.now().UTC().Format(time.RFC3339Nano),
		Version: s.cfg.Build.Version,
		Limits: limits{
			MaxMB:    svc.MaxMB(),
			MaxBytes: svc.MaxBytes(),
		},
		ImageTypes: upload.KindImage.Extensions(),
		FileTypes:  upload.KindFile.Extensions(),
	})
}

// handleReady serves GET /ready for load balancers: storage directories
// must exist and, when enabled, the catalog must answer.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]ComponentHealth)
	ready := true

	if s.cfg.Storage != nil {
		if err := s.cfg.Storage.Check(); err != nil {
			components["storage"] = ComponentHealth{Status: ComponentStatusDown, Message: err.Error()}
			ready = false
		} else {
			components["storage"] = ComponentHealth{Status: ComponentStatusUp}
		}
	}

	if s.cfg.Catalog != nil {
		if err := s.cfg.Catalog.Ping(ctx); err != nil {
			components["catalog"] = ComponentHealth{Status: ComponentStatusDown, Message: "catalog unavailable"}
			s.logger.Warn("catalog ping failed", "err", err)
			ready = false
		} else {
			components["catalog"] = ComponentHealth{Status: ComponentStatusUp}
		}
	}

	resp := readyResp{
		Status:     "ok",
		Timestamp:  s.now().UTC().Format(time.RFC3339),
		Components: components,
	}
	status := http.StatusOK
	if !ready {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
