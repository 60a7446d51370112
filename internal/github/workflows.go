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
	"strings"
)

type workflowDispatch struct {
	Ref    string         `json:"ref"`
	Inputs map[string]any `json:"inputs,omitempty"`
}

// Workflows lists the workflows of a repository
func (c *Client) Workflows(ctx context.Context, repo Repository, opts *ListOptions) (*Workflows, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var workflows Workflows
	resp, err := c.Get(ctx, p+"/actions/workflows", opts, &workflows)
	if err != nil {
		return nil, resp, err
	}
	return &workflows, resp, nil
}

// Workflow gets a workflow by numeric ID or file name (e.g. "ci.yml")
func (c *Client) Workflow(ctx context.Context, repo Repository, id string) (*Workflow, *Response, error) {
	p, err := workflowPath(repo, id)
	if err != nil {
		return nil, nil, err
	}

	var workflow Workflow
	resp, err := c.Get(ctx, p, nil, &workflow)
	if err != nil {
		return nil, resp, err
	}
	return &workflow, resp, nil
}

// DispatchWorkflow triggers a workflow_dispatch event for the workflow on ref
func (c *Client) DispatchWorkflow(ctx context.Context, repo Repository, id, ref string, inputs map[string]any) (bool, error) {
	p, err := workflowPath(repo, id)
	if err != nil {
		return false, err
	}
	if ref == "" {
		return false, fmt.Errorf("ref %w", ErrEmptyName)
	}
	return c.BooleanFromResponse(ctx, http.MethodPost, p+"/dispatches", &workflowDispatch{Ref: ref, Inputs: inputs})
}

// EnableWorkflow enables a disabled workflow
func (c *Client) EnableWorkflow(ctx context.Context, repo Repository, id string) (bool, error) {
	p, err := workflowPath(repo, id)
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodPut, p+"/enable", nil)
}

// DisableWorkflow disables a workflow
func (c *Client) DisableWorkflow(ctx context.Context, repo Repository, id string) (bool, error) {
	p, err := workflowPath(repo, id)
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodPut, p+"/disable", nil)
}

func workflowPath(repo Repository, id string) (string, error) {
	p, err := repo.Path()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("workflow id %w", ErrEmptyName)
	}
	return p + "/actions/workflows/" + url.PathEscape(id), nil
}
