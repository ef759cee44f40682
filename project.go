package indexwatch

import (
	"fmt"
	"time"
)

// Status represents the indexing state of a project.
//
// Status is a string type so it serializes directly to the backend's JSON
// representation while keeping the set of values closed.
type Status string

const (
	// StatusPending indicates the project has been created but never indexed.
	StatusPending Status = "pending"

	// StatusIndexing indicates the backend is currently indexing the project.
	StatusIndexing Status = "indexing"

	// StatusReady indicates indexing finished and the project can be queried.
	StatusReady Status = "ready"

	// StatusError indicates indexing finished unsuccessfully.
	StatusError Status = "error"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether s ends polling for a job.
// Only [StatusReady] and [StatusError] are terminal.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusIndexing, StatusReady, StatusError:
		return true
	}
	return false
}

// ParseStatus converts a backend status string into a [Status].
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown project status %q", s)
	}
	return st, nil
}

// Project is a codebase registered with the indexing backend.
//
// The JSON field names match the backend's project representation.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	FileCount   int        `json:"file_count"`
	IndexedAt   *time.Time `json:"indexed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Equal reports whether p and other describe the same project state.
// Timestamps are compared with [time.Time.Equal].
func (p Project) Equal(other Project) bool {
	if p.ID != other.ID || p.Name != other.Name || p.Path != other.Path ||
		p.Status != other.Status || p.FileCount != other.FileCount {
		return false
	}
	if !equalStringPtr(p.Description, other.Description) {
		return false
	}
	if !equalTimePtr(p.IndexedAt, other.IndexedAt) {
		return false
	}
	return p.CreatedAt.Equal(other.CreatedAt) && p.UpdatedAt.Equal(other.UpdatedAt)
}

// projectID is the key function used by the project store.
func projectID(p Project) string {
	return p.ID
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// JobStatus is the result of a single successful status check.
//
// It carries the full project snapshot returned by the [StatusSource] for
// the polled job, together with the time the check completed.
type JobStatus struct {
	// Project is the snapshot reported by the backend.
	Project Project

	// CheckedAt is the time the status check completed.
	CheckedAt time.Time
}

// Terminal reports whether the snapshot ends polling for its job.
func (js JobStatus) Terminal() bool {
	return js.Project.Status.Terminal()
}
