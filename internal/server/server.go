package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/indexwatch"
	"github.com/jpalmerr/indexwatch/backend"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// indexTimeout bounds the upstream trigger call made by POST .../index.
	indexTimeout = 15 * time.Second
)

// Tracker is the part of [indexwatch.Tracker] the server reads from and
// drives.
type Tracker interface {
	Projects() []indexwatch.Project
	Project(id string) (indexwatch.Project, bool)
	IndexingIDs() []string
	Index(ctx context.Context, projectID string) error
	Subscribe() <-chan indexwatch.Project
	Unsubscribe(ch <-chan indexwatch.Project)
}

// Server exposes a tracker over HTTP.
//
// Routes:
//   - GET  /api/projects: the reconciled project collection
//   - GET  /api/projects/{id}: a single project
//   - POST /api/projects/{id}/index: trigger indexing and start tracking
//   - GET  /api/indexing: ids currently being polled
//   - GET  /api/sse: Server-Sent Events stream of project updates
//   - GET  /metrics: Prometheus metrics (when a gatherer is configured)
//   - GET  /healthz: liveness
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	tracker    Tracker
	port       int
	gatherer   prometheus.Gatherer
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server]. gatherer may be nil, in which case
// /metrics is not served.
//
// The server is not started until [Server.Start] is called.
func NewServer(tr Tracker, port int, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tracker:  tr,
		port:     port,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/projects", s.handleProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleProject)
	mux.HandleFunc("POST /api/projects/{id}/index", s.handleIndex)
	mux.HandleFunc("GET /api/indexing", s.handleIndexing)
	mux.HandleFunc("GET /api/sse", s.handleSSE)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

type indexingResponse struct {
	Indexing []string `json:"indexing"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tracker.Projects())
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.tracker.Project(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// handleIndex triggers indexing upstream and starts tracking the project.
// Backend rejections are passed through with their original status code.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), indexTimeout)
	defer cancel()

	if err := s.tracker.Index(ctx, id); err != nil {
		var apiErr *backend.APIError
		switch {
		case errors.Is(err, indexwatch.ErrNoIndexTrigger):
			s.writeError(w, http.StatusNotImplemented, err.Error())
		case errors.As(err, &apiErr):
			detail := apiErr.Detail
			if detail == "" {
				detail = http.StatusText(apiErr.StatusCode)
			}
			s.writeError(w, apiErr.StatusCode, detail)
		default:
			s.logger.Warn("index trigger failed", "project_id", id, "error", err)
			s.writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	p, ok := s.tracker.Project(id)
	if !ok {
		s.writeJSON(w, http.StatusAccepted, indexingResponse{Indexing: s.tracker.IndexingIDs()})
		return
	}
	s.writeJSON(w, http.StatusAccepted, p)
}

func (s *Server) handleIndexing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, indexingResponse{Indexing: s.tracker.IndexingIDs()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

// handleSSE streams project updates via Server-Sent Events.
//
// The current collection is sent first, then every reconciled change.
// Writes carry a deadline so a stalled client cannot pin the handler.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		s.writeError(w, http.StatusInternalServerError, "SSE not supported")
		return
	}

	rc := http.NewResponseController(w)

	// may not be supported by some ResponseWriter impls
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.tracker.Subscribe()
	defer s.tracker.Unsubscribe(ch)

	for _, p := range s.tracker.Projects() {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(p)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}
