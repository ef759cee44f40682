package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jpalmerr/indexwatch"
)

const (
	maxProjectNameLen = 255
	maxProjectPathLen = 500
)

// ListProjects returns all projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]indexwatch.Project, error) {
	var projects []indexwatch.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns a single project. A missing project yields an error
// matching [ErrNotFound].
func (c *Client) GetProject(ctx context.Context, id string) (indexwatch.Project, error) {
	if id == "" {
		return indexwatch.Project{}, errors.New("project id is required")
	}
	var p indexwatch.Project
	if err := c.do(ctx, http.MethodGet, projectPath(id), nil, &p); err != nil {
		return indexwatch.Project{}, err
	}
	if _, err := indexwatch.ParseStatus(p.Status.String()); err != nil {
		return indexwatch.Project{}, fmt.Errorf("project %s: %w", id, err)
	}
	return p, nil
}

// GetStatus implements [indexwatch.StatusSource]. The job id is the
// project id.
func (c *Client) GetStatus(ctx context.Context, jobID string) (indexwatch.Project, error) {
	return c.GetProject(ctx, jobID)
}

// CreateProject registers a new codebase. New projects start as pending.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (indexwatch.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Path = strings.TrimSpace(req.Path)

	switch {
	case req.Name == "":
		return indexwatch.Project{}, errors.New("name is required")
	case len(req.Name) > maxProjectNameLen:
		return indexwatch.Project{}, fmt.Errorf("name must be at most %d characters", maxProjectNameLen)
	case req.Path == "":
		return indexwatch.Project{}, errors.New("path is required")
	case len(req.Path) > maxProjectPathLen:
		return indexwatch.Project{}, fmt.Errorf("path must be at most %d characters", maxProjectPathLen)
	}

	var p indexwatch.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", req, &p); err != nil {
		return indexwatch.Project{}, err
	}
	return p, nil
}

// DeleteProject removes a project and its embeddings.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("project id is required")
	}
	return c.do(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

// StartIndex asks the backend to index a project in the background.
func (c *Client) StartIndex(ctx context.Context, id string) (IndexResponse, error) {
	if id == "" {
		return IndexResponse{}, errors.New("project id is required")
	}
	var resp IndexResponse
	if err := c.do(ctx, http.MethodPost, projectPath(id)+"/index", nil, &resp); err != nil {
		return IndexResponse{}, err
	}
	return resp, nil
}

// TriggerIndex implements [indexwatch.IndexTrigger].
func (c *Client) TriggerIndex(ctx context.Context, projectID string) error {
	_, err := c.StartIndex(ctx, projectID)
	return err
}

func projectPath(id string) string {
	return "/api/projects/" + url.PathEscape(id)
}
