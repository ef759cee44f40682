package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	minTaskLen  = 10
	defaultTopK = 10
	maxTopK     = 50
)

// Search runs a semantic search over an indexed project.
// TopK defaults to 10 and must not exceed 50.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if req.ProjectID == "" {
		return SearchResponse{}, errors.New("project id is required")
	}
	if strings.TrimSpace(req.Query) == "" {
		return SearchResponse{}, errors.New("query is required")
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	if req.TopK < 1 || req.TopK > maxTopK {
		return SearchResponse{}, fmt.Errorf("top_k must be between 1 and %d, got %d", maxTopK, req.TopK)
	}

	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/search", req, &resp); err != nil {
		return SearchResponse{}, err
	}
	return resp, nil
}

// GeneratePlan asks the backend for an implementation plan for task.
// Plan generation can take much longer than a status check; callers should
// configure the client timeout accordingly.
func (c *Client) GeneratePlan(ctx context.Context, req GeneratePlanRequest) (Plan, error) {
	if req.ProjectID == "" {
		return Plan{}, errors.New("project id is required")
	}
	if len(strings.TrimSpace(req.Task)) < minTaskLen {
		return Plan{}, fmt.Errorf("task must be at least %d characters", minTaskLen)
	}

	var p Plan
	if err := c.do(ctx, http.MethodPost, "/api/plans/generate", req, &p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// GetPlan returns a stored plan.
func (c *Client) GetPlan(ctx context.Context, id string) (Plan, error) {
	if id == "" {
		return Plan{}, errors.New("plan id is required")
	}
	var p Plan
	if err := c.do(ctx, http.MethodGet, "/api/plans/"+url.PathEscape(id), nil, &p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// ListPlans returns the plans generated for a project.
func (c *Client) ListPlans(ctx context.Context, projectID string) ([]Plan, error) {
	if projectID == "" {
		return nil, errors.New("project id is required")
	}
	var plans []Plan
	if err := c.do(ctx, http.MethodGet, "/api/plans/project/"+url.PathEscape(projectID), nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}
