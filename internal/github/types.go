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
	"net/url"

	"github.com/google/go-github/v66/github"
)

// Response types are the go-github representations, returned unmodified.
type (
	Response     = github.Response
	Artifact     = github.Artifact
	ArtifactList = github.ArtifactList
	PublicKey    = github.PublicKey
	Secret       = github.Secret
	Secrets      = github.Secrets
	Workflow     = github.Workflow
	Workflows    = github.Workflows
	WorkflowJob  = github.WorkflowJob
	Jobs         = github.Jobs
	WorkflowRun  = github.WorkflowRun
	WorkflowRuns = github.WorkflowRuns
	Timestamp    = github.Timestamp
)

// Requester is the generic verb layer every Actions binding delegates to.
type Requester interface {
	// Get issues a GET with opts encoded as query parameters and decodes the body into v
	Get(ctx context.Context, path string, opts any, v any) (*Response, error)
	// Put issues a PUT with body encoded as JSON
	Put(ctx context.Context, path string, body any, v any) (*Response, error)
	// Post issues a POST with body encoded as JSON
	Post(ctx context.Context, path string, body any, v any) (*Response, error)
	// Delete issues a DELETE
	Delete(ctx context.Context, path string) (*Response, error)
	// BooleanFromResponse issues the request and reports whether it succeeded
	BooleanFromResponse(ctx context.Context, method, path string, body any) (bool, error)
	// Redirect issues a GET without following redirects and returns the target
	Redirect(ctx context.Context, path string) (*url.URL, error)
}

// ArtifactsAPI covers the artifact endpoints
type ArtifactsAPI interface {
	RunArtifacts(ctx context.Context, repo Repository, runID int64, opts *ListOptions) (*ArtifactList, *Response, error)
	Artifacts(ctx context.Context, repo Repository, opts *ArtifactsOptions) (*ArtifactList, *Response, error)
	Artifact(ctx context.Context, repo Repository, id int64) (*Artifact, *Response, error)
	DownloadArtifact(ctx context.Context, repo Repository, id int64) (*url.URL, error)
	DeleteArtifact(ctx context.Context, repo Repository, id int64) (bool, error)
}

// SecretsAPI covers the repository secret endpoints
type SecretsAPI interface {
	PublicKey(ctx context.Context, repo Repository) (*PublicKey, *Response, error)
	Secrets(ctx context.Context, repo Repository, opts *ListOptions) (*Secrets, *Response, error)
	Secret(ctx context.Context, repo Repository, name string) (*Secret, *Response, error)
	CreateOrUpdateSecret(ctx context.Context, repo Repository, name, keyID, encryptedValue string) (*Response, error)
	SetSecret(ctx context.Context, repo Repository, name string, plaintext []byte) (*Response, error)
	DeleteSecret(ctx context.Context, repo Repository, name string) (bool, error)
}

// WorkflowsAPI covers the workflow endpoints
type WorkflowsAPI interface {
	Workflows(ctx context.Context, repo Repository, opts *ListOptions) (*Workflows, *Response, error)
	Workflow(ctx context.Context, repo Repository, id string) (*Workflow, *Response, error)
	DispatchWorkflow(ctx context.Context, repo Repository, id, ref string, inputs map[string]any) (bool, error)
	EnableWorkflow(ctx context.Context, repo Repository, id string) (bool, error)
	DisableWorkflow(ctx context.Context, repo Repository, id string) (bool, error)
}

// JobsAPI covers the workflow job endpoints
type JobsAPI interface {
	WorkflowRunJobs(ctx context.Context, repo Repository, runID int64, opts *JobsOptions) (*Jobs, *Response, error)
	WorkflowJob(ctx context.Context, repo Repository, id int64) (*WorkflowJob, *Response, error)
	WorkflowJobLogs(ctx context.Context, repo Repository, id int64) (*url.URL, error)
}

// RunsAPI covers the workflow run endpoints
type RunsAPI interface {
	WorkflowRuns(ctx context.Context, repo Repository, workflowID string, opts *WorkflowRunsOptions) (*WorkflowRuns, *Response, error)
	AllWorkflowRuns(ctx context.Context, repo Repository, opts *WorkflowRunsOptions) (*WorkflowRuns, *Response, error)
	WorkflowRun(ctx context.Context, repo Repository, id int64) (*WorkflowRun, *Response, error)
	RerunWorkflowRun(ctx context.Context, repo Repository, id int64) (bool, error)
	CancelWorkflowRun(ctx context.Context, repo Repository, id int64) (bool, error)
	DeleteWorkflowRun(ctx context.Context, repo Repository, id int64) (bool, error)
	WorkflowRunLogs(ctx context.Context, repo Repository, id int64) (*url.URL, error)
	DeleteWorkflowRunLogs(ctx context.Context, repo Repository, id int64) (bool, error)
}

// ActionsClient is the full Actions API surface exposed by Client
type ActionsClient interface {
	Requester
	ArtifactsAPI
	SecretsAPI
	WorkflowsAPI
	JobsAPI
	RunsAPI
}

var _ ActionsClient = (*Client)(nil)
