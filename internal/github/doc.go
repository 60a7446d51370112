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

// Package github provides a client for GitHub's Actions REST API.
//
// The package has two layers. The client core owns the generic HTTP verb
// helpers (Get, Put, Post, Delete, BooleanFromResponse, Redirect) together with
// authentication, retries, throttling, logging and metrics. On top of it every
// Actions endpoint is a one-line binding that builds the resource path from the
// repository reference and identifiers, forwards query options and returns the
// decoded response unchanged.
//
// Key features:
//   - Artifacts: list (per run or repository), get, download URL, delete
//   - Secrets: public key, list, get, create or update, delete, seal-and-set
//   - Workflows: list, get, dispatch, enable, disable
//   - Workflow jobs: list for a run, get, log URL
//   - Workflow runs: list, get, re-run, cancel, delete, log URL, delete logs
//
// Repository references:
//
// Every binding takes a Repository, which is either a numeric ID or an owner
// and name. ID references resolve to "repositories/{id}", named references to
// "repos/{owner}/{name}". NewRepository accepts an int, int64, "owner/name"
// string, Repository, or go-github Repository.
//
// Example usage:
//
//	client, err := github.NewClient(github.WithToken(token))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	repo, _ := github.ParseRepository("octo-org/octo-repo")
//	runs, _, err := client.AllWorkflowRuns(ctx, repo, &github.WorkflowRunsOptions{Branch: "main"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, run := range runs.WorkflowRuns {
//	    fmt.Printf("%d %s %s\n", run.GetID(), run.GetName(), run.GetConclusion())
//	}
//
//	ok, err := client.RerunWorkflowRun(ctx, repo, runs.WorkflowRuns[0].GetID())
//
// Mutating calls report a boolean: any 2xx is true, 404 is false without an
// error, anything else is an error.
//
// Retry Logic:
//
// Failed requests are retried with exponential backoff:
//   - Initial backoff: 100 milliseconds
//   - Maximum backoff: 30 seconds
//   - Maximum retries: 3
//   - Backoff factor: 2.0
//
// Retries are performed for transient errors (rate limits, 502, 503, 504).
// When GitHub announces when a rate limit resets and that point falls within
// the maximum backoff, the client waits exactly that long. Client errors
// (4xx except 429) are not retried.
package github
