package indexwatch

import "context"

// StatusSource reports the current state of an indexing job.
//
// The job id is the id of the project being indexed. Implementations may be
// slow or fail; a returned error stops polling for that job.
// [github.com/jpalmerr/indexwatch/backend.Client] is the HTTP implementation.
type StatusSource interface {
	GetStatus(ctx context.Context, jobID string) (Project, error)
}

// StatusSourceFunc adapts an ordinary function to the [StatusSource] interface.
type StatusSourceFunc func(ctx context.Context, jobID string) (Project, error)

// GetStatus calls f(ctx, jobID).
func (f StatusSourceFunc) GetStatus(ctx context.Context, jobID string) (Project, error) {
	return f(ctx, jobID)
}

// IndexTrigger asks the backend to begin indexing a project.
//
// The backend may reject a trigger for a project that is already indexing.
// The trigger returns before polling for the job begins.
type IndexTrigger interface {
	TriggerIndex(ctx context.Context, projectID string) error
}

// IndexTriggerFunc adapts an ordinary function to the [IndexTrigger] interface.
type IndexTriggerFunc func(ctx context.Context, projectID string) error

// TriggerIndex calls f(ctx, projectID).
func (f IndexTriggerFunc) TriggerIndex(ctx context.Context, projectID string) error {
	return f(ctx, projectID)
}
