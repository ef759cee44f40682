// Package mockbackend is an in-memory stand-in for the indexing backend's
// project routes, for demos and manual testing of indexwatch.
//
// Indexing a project takes a random 5-15 seconds and fails one time in five.
package mockbackend

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/indexwatch"
)

type job struct {
	finishAt time.Time
	fails    bool
}

// Backend holds the mock project state.
type Backend struct {
	mu       sync.Mutex
	projects map[string]*indexwatch.Project
	jobs     map[string]job
	logger   *slog.Logger
}

// New returns a Backend seeded with projects named after names.
func New(logger *slog.Logger, names ...string) *Backend {
	b := &Backend{
		projects: make(map[string]*indexwatch.Project),
		jobs:     make(map[string]job),
		logger:   logger,
	}
	now := time.Now().UTC()
	for _, name := range names {
		id := uuid.NewString()
		b.projects[id] = &indexwatch.Project{
			ID:        id,
			Name:      name,
			Path:      "/src/" + name,
			Status:    indexwatch.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return b
}

// Handler returns the mock routes.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "connected", "version": "mock"})
	})
	mux.HandleFunc("GET /api/projects", b.list)
	mux.HandleFunc("GET /api/projects/{id}", b.get)
	mux.HandleFunc("POST /api/projects/{id}/index", b.index)
	return mux
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]indexwatch.Project, 0, len(b.projects))
	for id := range b.projects {
		out = append(out, *b.advance(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) get(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := r.PathValue("id")
	if _, ok := b.projects[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Project not found"})
		return
	}
	writeJSON(w, http.StatusOK, b.advance(id))
}

func (b *Backend) index(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := r.PathValue("id")
	p, ok := b.projects[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Project not found"})
		return
	}
	if p.Status == indexwatch.StatusIndexing {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Project is already being indexed"})
		return
	}

	p.Status = indexwatch.StatusIndexing
	p.UpdatedAt = time.Now().UTC()
	b.jobs[id] = job{
		finishAt: time.Now().Add(time.Duration(5+rand.Intn(11)) * time.Second),
		fails:    rand.Intn(5) == 0,
	}
	b.logger.Info("indexing started", "project_id", id, "name", p.Name)

	writeJSON(w, http.StatusOK, map[string]any{
		"project_id":    id,
		"status":        "indexing",
		"files_indexed": 0,
		"message":       "Indexing started in background",
	})
}

// advance finishes id's job if it is due. Caller holds b.mu.
func (b *Backend) advance(id string) *indexwatch.Project {
	p := b.projects[id]
	j, ok := b.jobs[id]
	if !ok || time.Now().Before(j.finishAt) {
		return p
	}
	delete(b.jobs, id)

	now := time.Now().UTC()
	p.UpdatedAt = now
	if j.fails {
		p.Status = indexwatch.StatusError
	} else {
		p.Status = indexwatch.StatusReady
		p.FileCount = 20 + rand.Intn(400)
		p.IndexedAt = &now
	}
	b.logger.Info("indexing finished", "project_id", id, "status", p.Status.String())
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
