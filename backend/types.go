package backend

import "time"

// CreateProjectRequest is the body of a project creation request.
type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Description *string `json:"description,omitempty"`
}

// IndexResponse acknowledges an indexing trigger.
type IndexResponse struct {
	ProjectID    string `json:"project_id"`
	Status       string `json:"status"`
	FilesIndexed int    `json:"files_indexed"`
	Message      string `json:"message"`
}

// SearchRequest is a semantic search over an indexed project.
type SearchRequest struct {
	ProjectID string `json:"project_id"`
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
}

// SearchResult is a single matching file chunk.
type SearchResult struct {
	FilePath   string  `json:"file_path"`
	FileName   string  `json:"file_name"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// SearchResponse holds the results of a semantic search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

// GeneratePlanRequest asks the backend for an implementation plan.
type GeneratePlanRequest struct {
	ProjectID string `json:"project_id"`
	Task      string `json:"task"`
}

// AffectedFile is a file the plan expects to touch.
type AffectedFile struct {
	Path   string `json:"path"`
	Action string `json:"action"` // "create", "modify" or "delete"
}

// ImplementationStep is one ordered step of a plan.
type ImplementationStep struct {
	Order       int     `json:"order"`
	Description string  `json:"description"`
	File        *string `json:"file"`
}

// ReusableComponent is existing code the plan suggests reusing.
type ReusableComponent struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Description *string `json:"description"`
}

// PlanData is the generated plan body.
type PlanData struct {
	Summary            string               `json:"summary"`
	AffectedFiles      []AffectedFile       `json:"affected_files"`
	Steps              []ImplementationStep `json:"steps"`
	ReusableComponents []ReusableComponent  `json:"reusable_components"`
}

// Plan is a stored implementation plan.
type Plan struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	TaskDescription string    `json:"task_description"`
	Plan            PlanData  `json:"plan"`
	ContextUsed     []string  `json:"context_used"`
	Confidence      float64   `json:"confidence"`
	CreatedAt       time.Time `json:"created_at"`
}

// Health is the backend health check response.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}
