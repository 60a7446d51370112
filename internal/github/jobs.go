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
	"net/url"
)

// WorkflowRunJobs lists the jobs of a workflow run
func (c *Client) WorkflowRunJobs(ctx context.Context, repo Repository, runID int64, opts *JobsOptions) (*Jobs, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var jobs Jobs
	resp, err := c.Get(ctx, fmt.Sprintf("%s/actions/runs/%d/jobs", p, runID), opts, &jobs)
	if err != nil {
		return nil, resp, err
	}
	return &jobs, resp, nil
}

// WorkflowJob gets a single workflow job
func (c *Client) WorkflowJob(ctx context.Context, repo Repository, id int64) (*WorkflowJob, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var job WorkflowJob
	resp, err := c.Get(ctx, fmt.Sprintf("%s/actions/jobs/%d", p, id), nil, &job)
	if err != nil {
		return nil, resp, err
	}
	return &job, resp, nil
}

// WorkflowJobLogs returns the short-lived URL of a job's plain text log
func (c *Client) WorkflowJobLogs(ctx context.Context, repo Repository, id int64) (*url.URL, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, err
	}
	return c.Redirect(ctx, fmt.Sprintf("%s/actions/jobs/%d/logs", p, id))
}
