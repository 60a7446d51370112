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

package output

import (
	"strconv"
	"time"

	"github.com/mikelane/ghactions/internal/cleanup"
	"github.com/mikelane/ghactions/internal/cost"
	"github.com/mikelane/ghactions/internal/github"
)

func formatTime(ts github.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// ArtifactRows tabulates artifacts
func ArtifactRows(artifacts ...*github.Artifact) *Rows {
	rows := &Rows{Header: []string{"ID", "NAME", "SIZE", "EXPIRED", "CREATED"}}
	for _, a := range artifacts {
		rows.Rows = append(rows.Rows, []string{
			itoa(a.GetID()),
			a.GetName(),
			itoa(a.GetSizeInBytes()),
			strconv.FormatBool(a.GetExpired()),
			formatTime(a.GetCreatedAt()),
		})
	}
	return rows
}

// SecretRows tabulates secrets; values are never returned by the API
func SecretRows(secrets ...*github.Secret) *Rows {
	rows := &Rows{Header: []string{"NAME", "CREATED", "UPDATED"}}
	for _, s := range secrets {
		if s == nil {
			continue
		}
		rows.Rows = append(rows.Rows, []string{s.Name, formatTime(s.CreatedAt), formatTime(s.UpdatedAt)})
	}
	return rows
}

// PublicKeyRows tabulates a repository public key
func PublicKeyRows(key *github.PublicKey) *Rows {
	return &Rows{
		Header: []string{"KEY ID", "KEY"},
		Rows:   [][]string{{key.GetKeyID(), key.GetKey()}},
	}
}

// WorkflowRows tabulates workflows
func WorkflowRows(workflows ...*github.Workflow) *Rows {
	rows := &Rows{Header: []string{"ID", "NAME", "PATH", "STATE"}}
	for _, w := range workflows {
		rows.Rows = append(rows.Rows, []string{itoa(w.GetID()), w.GetName(), w.GetPath(), w.GetState()})
	}
	return rows
}

// RunRows tabulates workflow runs
func RunRows(runs ...*github.WorkflowRun) *Rows {
	rows := &Rows{Header: []string{"ID", "WORKFLOW", "BRANCH", "EVENT", "STATUS", "CONCLUSION", "ATTEMPT", "CREATED"}}
	for _, r := range runs {
		rows.Rows = append(rows.Rows, []string{
			itoa(r.GetID()),
			r.GetName(),
			r.GetHeadBranch(),
			r.GetEvent(),
			r.GetStatus(),
			r.GetConclusion(),
			strconv.Itoa(r.GetRunAttempt()),
			formatTime(r.GetCreatedAt()),
		})
	}
	return rows
}

// JobRows tabulates workflow jobs
func JobRows(jobs ...*github.WorkflowJob) *Rows {
	rows := &Rows{Header: []string{"ID", "NAME", "STATUS", "CONCLUSION", "RUNNER", "STARTED", "COMPLETED"}}
	for _, j := range jobs {
		rows.Rows = append(rows.Rows, []string{
			itoa(j.GetID()),
			j.GetName(),
			j.GetStatus(),
			j.GetConclusion(),
			j.GetRunnerName(),
			formatTime(j.GetStartedAt()),
			formatTime(j.GetCompletedAt()),
		})
	}
	return rows
}

// EstimateRows tabulates a run cost estimate with a trailing total row
func EstimateRows(e *cost.RunEstimate) *Rows {
	rows := &Rows{Header: []string{"JOB", "NAME", "RUNNER", "MINUTES", "COST (" + e.Currency + ")"}}
	for _, j := range e.Jobs {
		rows.Rows = append(rows.Rows, []string{itoa(j.ID), j.Name, string(j.Runner), itoa(j.Minutes), j.Cost})
	}
	rows.Rows = append(rows.Rows, []string{"", "TOTAL", "", itoa(e.TotalMinutes), e.TotalCost})
	return rows
}

// PruneRows tabulates the artifacts selected by a prune pass
func PruneRows(r *cleanup.Report) *Rows {
	rows := &Rows{Header: []string{"REPOSITORY", "ID", "NAME", "SIZE", "CREATED"}}
	for _, c := range r.Candidates {
		rows.Rows = append(rows.Rows, []string{
			c.Repository,
			itoa(c.ID),
			c.Name,
			itoa(c.SizeBytes),
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}
