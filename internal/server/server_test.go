package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/indexwatch"
	"github.com/jpalmerr/indexwatch/backend"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func project(id string, status indexwatch.Status) indexwatch.Project {
	return indexwatch.Project{ID: id, Name: "project " + id, Path: "/src/" + id, Status: status}
}

// newTracker builds a tracker whose jobs stay indexing and whose trigger
// returns triggerErr.
func newTracker(t *testing.T, triggerErr error, projects ...indexwatch.Project) *indexwatch.Tracker {
	t.Helper()

	src := indexwatch.StatusSourceFunc(func(ctx context.Context, id string) (indexwatch.Project, error) {
		return project(id, indexwatch.StatusIndexing), nil
	})
	trigger := indexwatch.IndexTriggerFunc(func(ctx context.Context, id string) error {
		return triggerErr
	})

	tr, err := indexwatch.New(
		indexwatch.WithStatusSource(src),
		indexwatch.WithIndexTrigger(trigger),
		indexwatch.WithPollingInterval(time.Hour),
		indexwatch.WithLogger(testLogger()),
		indexwatch.WithProjects(projects...),
	)
	require.NoError(t, err)
	t.Cleanup(tr.StopAll)
	return tr
}

func newTestServer(t *testing.T, tr Tracker) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(tr, 0, nil, testLogger()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandleProjects(t *testing.T) {
	tr := newTracker(t, nil, project("a", indexwatch.StatusReady), project("b", indexwatch.StatusPending))
	ts := newTestServer(t, tr)

	resp, err := http.Get(ts.URL + "/api/projects")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []indexwatch.Project
	decodeBody(t, resp, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, indexwatch.StatusPending, got[1].Status)
}

func TestHandleProject(t *testing.T) {
	tr := newTracker(t, nil, project("a", indexwatch.StatusReady))
	ts := newTestServer(t, tr)

	resp, err := http.Get(ts.URL + "/api/projects/a")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got indexwatch.Project
	decodeBody(t, resp, &got)
	assert.Equal(t, indexwatch.StatusReady, got.Status)

	resp, err = http.Get(ts.URL + "/api/projects/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp errorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "Project not found", errResp.Detail)
}

func TestHandleIndex_StartsTracking(t *testing.T) {
	tr := newTracker(t, nil, project("a", indexwatch.StatusPending))
	ts := newTestServer(t, tr)

	resp, err := http.Post(ts.URL+"/api/projects/a/index", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var got indexwatch.Project
	decodeBody(t, resp, &got)
	assert.Equal(t, indexwatch.StatusIndexing, got.Status)
	assert.True(t, tr.IsIndexing("a"))

	resp, err = http.Get(ts.URL + "/api/indexing")
	require.NoError(t, err)
	var ids indexingResponse
	decodeBody(t, resp, &ids)
	assert.Equal(t, []string{"a"}, ids.Indexing)
}

func TestHandleIndex_Errors(t *testing.T) {
	tests := []struct {
		name       string
		triggerErr error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "backend rejection passed through",
			triggerErr: &backend.APIError{StatusCode: http.StatusBadRequest, Detail: "Project is already being indexed"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Project is already being indexed",
		},
		{
			name:       "backend not found",
			triggerErr: &backend.APIError{StatusCode: http.StatusNotFound},
			wantStatus: http.StatusNotFound,
			wantDetail: "Not Found",
		},
		{
			name:       "transport failure",
			triggerErr: errors.New("connection refused"),
			wantStatus: http.StatusBadGateway,
			wantDetail: "failed to trigger indexing for a: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(t, tt.triggerErr, project("a", indexwatch.StatusPending))
			ts := newTestServer(t, tr)

			resp, err := http.Post(ts.URL+"/api/projects/a/index", "application/json", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var errResp errorResponse
			decodeBody(t, resp, &errResp)
			assert.Equal(t, tt.wantDetail, errResp.Detail)
			assert.False(t, tr.IsIndexing("a"))
		})
	}
}

func TestHandleIndex_NoTrigger(t *testing.T) {
	src := indexwatch.StatusSourceFunc(func(ctx context.Context, id string) (indexwatch.Project, error) {
		return project(id, indexwatch.StatusReady), nil
	})
	tr, err := indexwatch.New(indexwatch.WithStatusSource(src), indexwatch.WithLogger(testLogger()))
	require.NoError(t, err)
	t.Cleanup(tr.StopAll)
	ts := newTestServer(t, tr)

	resp, err := http.Post(ts.URL+"/api/projects/a/index", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, newTracker(t, nil))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, newTracker(t, nil))

	resp, err := http.Post(ts.URL+"/api/projects", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := indexwatch.StatusSourceFunc(func(ctx context.Context, id string) (indexwatch.Project, error) {
		return project(id, indexwatch.StatusIndexing), nil
	})
	tr, err := indexwatch.New(
		indexwatch.WithStatusSource(src),
		indexwatch.WithPollingInterval(time.Hour),
		indexwatch.WithLogger(testLogger()),
		indexwatch.WithMetrics(reg),
	)
	require.NoError(t, err)
	t.Cleanup(tr.StopAll)
	tr.Start("a")

	ts := httptest.NewServer(NewServer(tr, 0, reg, testLogger()).Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "indexwatch_active_pollers 1")

	// without a gatherer the route is absent
	plain := newTestServer(t, tr)
	resp2, err := http.Get(plain.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
	_ = resp2.Body.Close()
}

// --- SSE ---

func parseSSEEvents(body string) []indexwatch.Project {
	var events []indexwatch.Project
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var p indexwatch.Project
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &p); err == nil {
			events = append(events, p)
		}
	}
	return events
}

func TestHandleSSE_InitialSnapshot(t *testing.T) {
	tr := newTracker(t, nil, project("a", indexwatch.StatusReady), project("b", indexwatch.StatusError))
	srv := NewServer(tr, 0, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	events := parseSSEEvents(rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "b", events[1].ID)
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	tr := newTracker(t, nil)
	srv := NewServer(tr, 0, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)
	tr.Load([]indexwatch.Project{project("new", indexwatch.StatusPending)})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	events := parseSSEEvents(rec.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "new", events[len(events)-1].ID)
}

func TestHandleSSE_Headers(t *testing.T) {
	srv := NewServer(newTracker(t, nil), 0, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	expected := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}
	for key, want := range expected {
		assert.Equal(t, want, rec.Header().Get(key), "header %s", key)
	}
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
}

func (n *nonFlushWriter) Header() http.Header         { return n.header }
func (n *nonFlushWriter) Write(b []byte) (int, error) { return len(b), nil }
func (n *nonFlushWriter) WriteHeader(statusCode int)  { n.statusCode = statusCode }

func TestHandleSSE_NotSupported(t *testing.T) {
	srv := NewServer(newTracker(t, nil), 0, nil, testLogger())

	w := &nonFlushWriter{header: make(http.Header)}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	assert.Equal(t, http.StatusInternalServerError, w.statusCode)
}

// TestHandleSSE_ShutdownIntegration checks that SSE clients over real
// connections are released when the server context is cancelled.
func TestHandleSSE_ShutdownIntegration(t *testing.T) {
	tr := newTracker(t, nil, project("a", indexwatch.StatusReady))
	srv := NewServer(tr, 0, nil, testLogger())

	serverCtx, serverCancel := context.WithCancel(context.Background())

	// derive request context from server context (simulates BaseContext)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.handleSSE(w, r.WithContext(serverCtx))
	}))
	defer ts.Close()

	const numClients = 5
	var wg sync.WaitGroup
	var connected atomic.Int32
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := ts.Client().Get(ts.URL)
			if err != nil {
				return
			}
			defer func() { _ = resp.Body.Close() }()
			connected.Add(1)
			_, _ = io.Copy(io.Discard, resp.Body)
		}()
	}

	require.Eventually(t, func() bool { return connected.Load() == numClients }, 2*time.Second, 10*time.Millisecond)
	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all SSE clients disconnected after shutdown")
	}
}

// --- Start ---

func TestStart_AvailablePort(t *testing.T) {
	srv := NewServer(newTracker(t, nil), 0, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NoError(t, srv.Start(ctx))
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := NewServer(newTracker(t, nil), port, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
}

func TestStart_InvalidPort(t *testing.T) {
	srv := NewServer(newTracker(t, nil), -1, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, srv.Start(ctx))
}
