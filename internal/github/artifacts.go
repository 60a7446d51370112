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

// RunArtifacts lists the artifacts of a workflow run
func (c *Client) RunArtifacts(ctx context.Context, repo Repository, runID int64, opts *ListOptions) (*ArtifactList, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var list ArtifactList
	resp, err := c.Get(ctx, fmt.Sprintf("%s/actions/runs/%d/artifacts", p, runID), opts, &list)
	if err != nil {
		return nil, resp, err
	}
	return &list, resp, nil
}

// Artifacts lists every artifact in the repository
func (c *Client) Artifacts(ctx context.Context, repo Repository, opts *ArtifactsOptions) (*ArtifactList, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var list ArtifactList
	resp, err := c.Get(ctx, p+"/actions/artifacts", opts, &list)
	if err != nil {
		return nil, resp, err
	}
	return &list, resp, nil
}

// Artifact gets a single artifact
func (c *Client) Artifact(ctx context.Context, repo Repository, id int64) (*Artifact, *Response, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, nil, err
	}

	var artifact Artifact
	resp, err := c.Get(ctx, fmt.Sprintf("%s/actions/artifacts/%d", p, id), nil, &artifact)
	if err != nil {
		return nil, resp, err
	}
	return &artifact, resp, nil
}

// DownloadArtifact returns the short-lived archive URL of an artifact
func (c *Client) DownloadArtifact(ctx context.Context, repo Repository, id int64) (*url.URL, error) {
	p, err := repo.Path()
	if err != nil {
		return nil, err
	}
	return c.Redirect(ctx, fmt.Sprintf("%s/actions/artifacts/%d/zip", p, id))
}

// DeleteArtifact deletes an artifact
func (c *Client) DeleteArtifact(ctx context.Context, repo Repository, id int64) (bool, error) {
	p, err := repo.Path()
	if err != nil {
		return false, err
	}
	return c.BooleanFromResponse(ctx, http.MethodDelete, fmt.Sprintf("%s/actions/artifacts/%d", p, id), nil)
}
