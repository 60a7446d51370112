// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// WorkflowRuns lists the runs of one workflow, identified by ID or file name
func (c *Client) WorkflowRuns(ctx context.Context, repo Repository, workflowID string, opts *WorkflowRunsOptions) (*WorkflowRuns, *Response, error) {
	p, err := workflowPath(repo, workflowID)
	if err != nil {
		return nil, nil, err
	}

	var runs WorkflowRuns
	resp, err := c.Get(ctx, p+"/runs", opts, &runs)
	if err != nil {
		return nil, resp, err
	}
	return &runs, resp, nil
}

// AllWorkflowRuns lists the runs of every workflow in the repository
func (c *Client) AllWorkflowRuns(ctx context.Context, repo Repository, opts *WorkflowRunsOptions) (*WorkflowRuns, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var runs WorkflowRuns
	resp, err := c.Get(ctx, p+"/actions/runs", opts, &runs)
	if err != nil {
		return nil, resp, err
	}
	return &runs, resp, nil
}

// WorkflowRun gets a single workflow run
func (c *Client) WorkflowRun(ctx context.Context, repo Repository, id int64) (*WorkflowRun, *Response, error) {
	p, err := runPath(repo, id)
	if err != nil {
		return nil, nil, err
	}

	var run WorkflowRun
	resp, err := c.Get(ctx, p, nil, &run)
	if err != nil {
		return nil, resp, err
	}
	return &run, resp, nil
}

// RerunWorkflowRun re-runs every job of a workflow run
func (c *Client) RerunWorkflowRun(ctx context.Context, repo Repository, id int64) (bool, error) {
	p, err := runPath(repo, id)
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodPost, p+"/rerun", nil)
}

// CancelWorkflowRun cancels a workflow run
func (c *Client) CancelWorkflowRun(ctx context.Context, repo Repository, id int64) (bool, error) {
	p, err := runPath(repo, id)
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodPost, p+"/cancel", nil)
}

// DeleteWorkflowRun deletes a completed workflow run
func (c *Client) DeleteWorkflowRun(ctx context.Context, repo Repository, id int64) (bool, error) {
	p, err := runPath(repo, id)
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodDelete, p, nil)
}

// WorkflowRunLogs returns the short-lived URL of the run's log archive
func (c *Client) WorkflowRunLogs(ctx context.Context, repo Repository, id int64) (*url.URL, error) {
	p, err := runPath(repo, id)
	if err != nil {
		return nil, err
	}
	return c.Redirect(ctx, p+"/logs")
}

// DeleteWorkflowRunLogs deletes the logs of a workflow run
func (c *Client) DeleteWorkflowRunLogs(ctx context.Context, repo Repository, id int64) (bool, error) {
	p, err := runPath(repo, id)
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodDelete, p+"/logs", nil)
}

func runPath(repo Repository, id int64) (string, error) {
	p, err := repo.Path()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/actions/runs/%d", p, id), nil
}
