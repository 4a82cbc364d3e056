package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SubmissionQuery filters a submission listing. Zero-valued fields are left
// out of the query string.
type SubmissionQuery struct {
	Current  int
	PageSize int
	User     string
	Problem  string
	Language Language
	Verdict  Verdict
}

// Values returns the defined fields as query parameters.
func (q SubmissionQuery) Values() url.Values {
	v := url.Values{}
	if q.Current > 0 {
		v.Set("current", strconv.Itoa(q.Current))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.User != "" {
		v.Set("user", q.User)
	}
	if q.Problem != "" {
		v.Set("problem", q.Problem)
	}
	if q.Language != "" {
		v.Set("language", string(q.Language))
	}
	if q.Verdict != "" {
		v.Set("verdict", string(q.Verdict))
	}
	return v
}

// Encode returns the query string without a leading "?".
func (q SubmissionQuery) Encode() string {
	return q.Values().Encode()
}

// SubmitSolution creates a submission for the current user.
func (c *Client) SubmitSolution(ctx context.Context, sub NewSubmission) (*Submission, error) {
	var s Submission
	if err := c.do(ctx, http.MethodPost, "/submissions", sub, &s); err != nil {
		return nil, fmt.Errorf("submitting solution: %w", err)
	}
	return &s, nil
}

// ListSubmissions fetches a filtered page of submissions.
func (c *Client) ListSubmissions(ctx context.Context, q SubmissionQuery) (*Page[Submission], error) {
	var resp Page[Submission]
	if err := c.do(ctx, http.MethodGet, "/submissions", nil, &resp, withQuery(q.Values())); err != nil {
		return nil, fmt.Errorf("fetching submissions: %w", err)
	}
	return &resp, nil
}

// GetSubmission fetches a single submission including its source.
func (c *Client) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	var s Submission
	if err := c.do(ctx, http.MethodGet, "/submissions/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, fmt.Errorf("fetching submission %s: %w", id, err)
	}
	return &s, nil
}

// ListProblemSubmissions fetches every submission for a problem.
func (c *Client) ListProblemSubmissions(ctx context.Context, problemID string) ([]Submission, error) {
	var subs []Submission
	if err := c.do(ctx, http.MethodGet, "/submissions/problem/"+url.PathEscape(problemID), nil, &subs); err != nil {
		return nil, fmt.Errorf("fetching submissions for problem %s: %w", problemID, err)
	}
	return subs, nil
}

// ListUserSubmissions fetches every submission by a user.
func (c *Client) ListUserSubmissions(ctx context.Context, userID string) ([]Submission, error) {
	var subs []Submission
	if err := c.do(ctx, http.MethodGet, "/submissions/user/"+url.PathEscape(userID), nil, &subs); err != nil {
		return nil, fmt.Errorf("fetching submissions for user %s: %w", userID, err)
	}
	return subs, nil
}

// GetUserStats fetches aggregate verdict counts for a user.
func (c *Client) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	var st UserStats
	if err := c.do(ctx, http.MethodGet, "/submissions/user/"+url.PathEscape(userID)+"/stats", nil, &st); err != nil {
		return nil, fmt.Errorf("fetching statistics for user %s: %w", userID, err)
	}
	return &st, nil
}

// UpdateVerdict records a grading outcome. Only graders are allowed to call it.
func (c *Client) UpdateVerdict(ctx context.Context, id string, upd VerdictUpdate) (*Submission, error) {
	var s Submission
	if err := c.do(ctx, http.MethodPut, "/submissions/"+url.PathEscape(id)+"/verdict", upd, &s); err != nil {
		return nil, fmt.Errorf("updating verdict for %s: %w", id, err)
	}
	return &s, nil
}

// BatchGetSubmissions fetches several submissions concurrently with a
// concurrency limit. Results keep the order of ids; failed fetches are nil.
func (c *Client) BatchGetSubmissions(ctx context.Context, ids []string) ([]*Submission, error) {
	results := make([]*Submission, len(ids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, id := range ids {
		g.Go(func() error {
			s, err := c.GetSubmission(ctx, id)
			if err != nil {
				// Non-fatal: individual submissions can fail.
				return nil
			}
			mu.Lock()
			results[i] = s
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
