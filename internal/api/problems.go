package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// ListProblems fetches one page of problems. Non-positive arguments fall back
// to page 1 and 10 per page.
func (c *Client) ListProblems(ctx context.Context, page, pageSize int) (*Page[Problem], error) {
	if page <= 0 {
		page = defaultPage
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	q := url.Values{
		"current":  {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	var resp Page[Problem]
	if err := c.do(ctx, http.MethodGet, "/problems", nil, &resp, withQuery(q)); err != nil {
		return nil, fmt.Errorf("fetching problems: %w", err)
	}
	return &resp, nil
}

// GetProblem fetches a single problem by id.
func (c *Client) GetProblem(ctx context.Context, id string) (*Problem, error) {
	var p Problem
	if err := c.do(ctx, http.MethodGet, "/problems/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, fmt.Errorf("fetching problem %s: %w", id, err)
	}
	return &p, nil
}

// CreateProblem creates a problem. Requires an admin token.
func (c *Client) CreateProblem(ctx context.Context, in ProblemInput) (*Problem, error) {
	var p Problem
	if err := c.do(ctx, http.MethodPost, "/problems", in, &p); err != nil {
		return nil, fmt.Errorf("creating problem: %w", err)
	}
	return &p, nil
}

// UpdateProblem replaces the editable fields of a problem.
func (c *Client) UpdateProblem(ctx context.Context, id string, in ProblemInput) (*Problem, error) {
	var p Problem
	if err := c.do(ctx, http.MethodPut, "/problems/"+url.PathEscape(id), in, &p); err != nil {
		return nil, fmt.Errorf("updating problem %s: %w", id, err)
	}
	return &p, nil
}

// DeleteProblem removes a problem.
func (c *Client) DeleteProblem(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/problems/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting problem %s: %w", id, err)
	}
	return nil
}
