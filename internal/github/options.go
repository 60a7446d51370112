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

// ListOptions specifies pagination for list endpoints
type ListOptions struct {
	// Page number, starting at 1
	Page int `url:"page,omitempty"`
	// PerPage is the page size (max 100)
	PerPage int `url:"per_page,omitempty"`
}

// ArtifactsOptions filters the repository artifact listing
type ArtifactsOptions struct {
	// Name filters by exact artifact name
	Name string `url:"name,omitempty"`

	ListOptions
}

// JobsOptions filters the jobs of a workflow run
type JobsOptions struct {
	// Filter is "latest" (default) or "all" attempts
	Filter string `url:"filter,omitempty"`

	ListOptions
}

// WorkflowRunsOptions filters workflow run listings
type WorkflowRunsOptions struct {
	Actor               string `url:"actor,omitempty"`
	Branch              string `url:"branch,omitempty"`
	Event               string `url:"event,omitempty"` // push, pull_request, ...
	Status              string `url:"status,omitempty"` // queued, in_progress, completed, success, failure, ...
	Created             string `url:"created,omitempty"`
	HeadSHA             string `url:"head_sha,omitempty"`
	ExcludePullRequests bool   `url:"exclude_pull_requests,omitempty"`

	ListOptions
}
