package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"upload-service/internal/upload"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// StorageChecker reports whether the upload directories are usable.
type StorageChecker interface {
	Check() error
}

type Config struct {
	Addr    string // e.g. ":8000"
	Build   BuildInfo
	Uploads *upload.Service
	Storage StorageChecker
	Catalog upload.Catalog // nil disables /uploads lookups
	Logger  *log.Logger

	AllowedOrigins []string
	RateLimit      int // requests per minute per client IP; 0 disables
}

type Server struct {
	cfg        Config
	httpServer *http.Server
	logger     *log.Logger
	metrics    *Metrics
	limiter    *rateLimiter
	now        func() time.Time
}

func New(cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger,
		metrics: NewMetrics(cfg.Build),
		now:     time.Now,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if cfg.RateLimit > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit, time.Minute)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.Handle("POST /upload/image", s.uploadHandler(upload.KindImage))
	mux.Handle("POST /upload/file", s.uploadHandler(upload.KindFile))

	if s.cfg.Catalog != nil {
		mux.HandleFunc("GET /uploads", s.handleListUploads)
		mux.HandleFunc("GET /uploads/{id}", s.handleGetUpload)
	}

	return mux
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	// requestID -> logging -> cors -> security -> rate limit -> mux
	var handler http.Handler = s.routes()
	if s.limiter != nil {
		handler = s.limiter.middleware(handler)
	}
	handler = securityHeadersMiddleware(handler)
	handler = corsMiddleware(s.cfg.AllowedOrigins)(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	return s.httpServer.Shutdown(ctx)
}
