package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
)

// BuildInfo identifies the running binary in logs and health output.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config carries everything the HTTP layer needs. Unit tests construct it
// directly; the production binary fills it from the environment in main.
type Config struct {
	Addr  string // e.g. "0.0.0.0:1001"
	Build BuildInfo

	DB *sql.DB

	// Object storage for raw report archival. Nil disables the archive
	// endpoints; the rest of the service works without it.
	Minio  *minio.Client
	Bucket string

	// Optional bearer token required on mutating endpoints.
	IngestToken string

	// Webhook dispatch for summary.recorded / coverage.regressed events.
	// Nil disables webhooks.
	Webhooks *WebhookDispatcher

	// Line-percent drop that counts as a regression. Zero means the
	// default of 1.0.
	RegressionThreshold float64
}

type Server struct {
	httpServer *http.Server
	handler    http.Handler

	db     *sql.DB
	mc     *minio.Client
	bucket string
	cfg    Config
}

func New(cfg Config) *Server {
	s := &Server{
		db:     cfg.DB,
		mc:     cfg.Minio,
		bucket: cfg.Bucket,
		cfg:    cfg,
	}

	auth := ingestAuth{Token: cfg.IngestToken}
	limits := newEndpointRateLimiter()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.dashboardHandler)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /livez", s.handleLive)
	mux.Handle("GET /metrics", prometheusHandler(cfg.Build.Version))

	mux.Handle("POST /{org}/{repo}/summary", auth.require(http.HandlerFunc(s.ingestSummaryHandler)))
	mux.HandleFunc("GET /{org}/{repo}/summary", s.latestSummaryHandler)
	mux.HandleFunc("GET /{org}/{repo}/history", s.historyHandler)
	mux.HandleFunc("GET /{org}/{repo}/badge.svg", s.badgeHandler)

	mux.Handle("POST /{org}/{repo}/report", auth.require(http.HandlerFunc(s.archiveReportHandler)))
	mux.HandleFunc("GET /report", s.fetchReportHandler)

	mux.HandleFunc("GET /api/summaries", s.apiSummariesHandler)

	// Wrap middleware: requestID -> logging -> headers -> compression -> rate limits -> mux
	var handler http.Handler = mux
	handler = limits.middleware(handler)
	handler = globalRateLimiter.middleware(handler)
	handler = compressionMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler exposes the fully wrapped handler for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
