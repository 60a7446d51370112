/*
MIT License

Copyright (c) 2025 Mike Lane

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package cost

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mikelane/ghactions/internal/github"
)

// RunnerOS identifies the billing class of a runner
type RunnerOS string

const (
	Linux      RunnerOS = "linux"
	Windows    RunnerOS = "windows"
	MacOS      RunnerOS = "macos"
	SelfHosted RunnerOS = "self-hosted"
)

// Config defines the pricing configuration for cost estimation
type Config struct {
	Currency      string
	RatePerMinute map[RunnerOS]float64
}

// DefaultConfig returns the default pricing configuration
func DefaultConfig() *Config {
	return &Config{
		Currency: "USD",
		RatePerMinute: map[RunnerOS]float64{
			Linux:      0.008,
			Windows:    0.016,
			MacOS:      0.08,
			SelfHosted: 0,
		},
	}
}

// JobEstimate is the billable time and cost of one job
type JobEstimate struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Runner  RunnerOS `json:"runner"`
	Minutes int64    `json:"minutes"`
	Cost    string   `json:"cost"`
}

// RunEstimate aggregates the jobs of a workflow run
type RunEstimate struct {
	Currency     string        `json:"currency"`
	TotalMinutes int64         `json:"totalMinutes"`
	TotalCost    string        `json:"totalCost"`
	Jobs         []JobEstimate `json:"jobs"`
}

// Estimator calculates costs for workflow runs
type Estimator struct {
	config *Config
	mu     sync.RWMutex
}

// NewEstimator creates a new cost estimator with the given configuration.
// If config is nil, default configuration is used.
func NewEstimator(config *Config) *Estimator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Estimator{
		config: config,
	}
}

// BillableMinutes returns the job duration rounded up to whole minutes.
// Jobs missing either timestamp, or finishing before they start, bill nothing.
func BillableMinutes(job *github.WorkflowJob) int64 {
	if job == nil || job.StartedAt == nil || job.CompletedAt == nil {
		return 0
	}
	d := job.CompletedAt.Sub(job.StartedAt.Time)
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Minutes()))
}

// RunnerOSOf classifies a job by its runner labels. Unknown labels bill as Linux.
func RunnerOSOf(job *github.WorkflowJob) RunnerOS {
	if job == nil {
		return Linux
	}
	for _, label := range job.Labels {
		if strings.EqualFold(label, "self-hosted") {
			return SelfHosted
		}
	}
	for _, label := range job.Labels {
		l := strings.ToLower(label)
		switch {
		case strings.HasPrefix(l, "windows"):
			return Windows
		case strings.HasPrefix(l, "macos"):
			return MacOS
		}
	}
	return Linux
}

// EstimateJob calculates the cost of a single job
func (e *Estimator) EstimateJob(job *github.WorkflowJob) JobEstimate {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.estimateJob(job)
}

func (e *Estimator) estimateJob(job *github.WorkflowJob) JobEstimate {
	runner := RunnerOSOf(job)
	minutes := BillableMinutes(job)
	return JobEstimate{
		ID:      job.GetID(),
		Name:    job.GetName(),
		Runner:  runner,
		Minutes: minutes,
		Cost:    formatCost(float64(minutes) * e.config.RatePerMinute[runner]),
	}
}

// EstimateRun estimates the total cost of all jobs in a workflow run
func (e *Estimator) EstimateRun(jobs []*github.WorkflowJob) *RunEstimate {
	e.mu.RLock()
	defer e.mu.RUnlock()

	estimate := &RunEstimate{
		Currency: e.config.Currency,
		Jobs:     make([]JobEstimate, 0, len(jobs)),
	}

	var total float64
	for _, job := range jobs {
		if job == nil {
			continue
		}
		je := e.estimateJob(job)
		estimate.Jobs = append(estimate.Jobs, je)
		estimate.TotalMinutes += je.Minutes
		total += float64(je.Minutes) * e.config.RatePerMinute[je.Runner]
	}
	estimate.TotalCost = formatCost(total)

	return estimate
}

// CostOf returns the cost of running on the given OS for a duration, rounded up to whole minutes
func (e *Estimator) CostOf(runner RunnerOS, d time.Duration) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if d <= 0 {
		return 0
	}
	return math.Ceil(d.Minutes()) * e.config.RatePerMinute[runner]
}

// formatCost formats a cost value as a string with 4 decimal places for transparency
func formatCost(cost float64) string {
	return fmt.Sprintf("%.4f", cost)
}

// GetConfig returns the current pricing configuration
func (e *Estimator) GetConfig() *Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// UpdateConfig updates the pricing configuration
func (e *Estimator) UpdateConfig(config *Config) {
	if config != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.config = config
	}
}
