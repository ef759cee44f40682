package poller

import "sort"

// Registry maps job ids to their live polling [Handle].
//
// Registry enforces at most one handle per job id. It performs no I/O and
// is not safe for concurrent use; callers serialize access.
type Registry struct {
	handles map[string]*Handle
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Register adds h under jobID. If jobID is already present the registry is
// left unchanged and Register returns false.
func (r *Registry) Register(jobID string, h *Handle) bool {
	if _, exists := r.handles[jobID]; exists {
		return false
	}
	r.handles[jobID] = h
	return true
}

// Unregister removes the entry for jobID. Removing an absent id is a no-op.
func (r *Registry) Unregister(jobID string) {
	delete(r.handles, jobID)
}

// Has reports whether jobID has a registered handle.
func (r *Registry) Has(jobID string) bool {
	_, ok := r.handles[jobID]
	return ok
}

// Lookup returns the handle registered for jobID, or nil.
func (r *Registry) Lookup(jobID string) *Handle {
	return r.handles[jobID]
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	return len(r.handles)
}

// DrainAll removes every entry and returns the removed handles ordered by
// job id.
func (r *Registry) DrainAll() []*Handle {
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	drained := make([]*Handle, 0, len(ids))
	for _, id := range ids {
		drained = append(drained, r.handles[id])
	}
	r.handles = make(map[string]*Handle)
	return drained
}
