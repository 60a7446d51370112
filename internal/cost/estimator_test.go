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
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	gogithub "github.com/google/go-github/v66/github"

	"github.com/mikelane/ghactions/internal/github"
)

var start = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

func job(id int64, name string, d time.Duration, labels ...string) *github.WorkflowJob {
	return &github.WorkflowJob{
		ID:          gogithub.Int64(id),
		Name:        gogithub.String(name),
		Labels:      labels,
		StartedAt:   &gogithub.Timestamp{Time: start},
		CompletedAt: &gogithub.Timestamp{Time: start.Add(d)},
	}
}

func TestNewEstimator(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   *Config
	}{
		{
			name:   "creates estimator with default config",
			config: nil,
			want:   DefaultConfig(),
		},
		{
			name: "creates estimator with custom config",
			config: &Config{
				Currency:      "EUR",
				RatePerMinute: map[RunnerOS]float64{Linux: 0.01},
			},
			want: &Config{
				Currency:      "EUR",
				RatePerMinute: map[RunnerOS]float64{Linux: 0.01},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimator := NewEstimator(tt.config)
			if estimator == nil {
				t.Fatal("NewEstimator returned nil")
			}
			if diff := cmp.Diff(tt.want, estimator.GetConfig()); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBillableMinutes(t *testing.T) {
	tests := []struct {
		name string
		job  *github.WorkflowJob
		want int64
	}{
		{name: "exact minutes", job: job(1, "build", 3*time.Minute), want: 3},
		{name: "rounds up partial minute", job: job(1, "build", 61*time.Second), want: 2},
		{name: "one second bills one minute", job: job(1, "build", time.Second), want: 1},
		{name: "zero duration", job: job(1, "build", 0), want: 0},
		{name: "negative duration", job: job(1, "build", -time.Minute), want: 0},
		{name: "nil job", job: nil, want: 0},
		{
			name: "missing completion",
			job:  &github.WorkflowJob{StartedAt: &gogithub.Timestamp{Time: start}},
			want: 0,
		},
		{
			name: "missing start",
			job:  &github.WorkflowJob{CompletedAt: &gogithub.Timestamp{Time: start}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BillableMinutes(tt.job); got != tt.want {
				t.Errorf("BillableMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunnerOSOf(t *testing.T) {
	tests := []struct {
		labels []string
		want   RunnerOS
	}{
		{labels: []string{"ubuntu-latest"}, want: Linux},
		{labels: []string{"windows-2022"}, want: Windows},
		{labels: []string{"macos-14"}, want: MacOS},
		{labels: []string{"MacOS-Latest"}, want: MacOS},
		{labels: []string{"self-hosted", "linux", "x64"}, want: SelfHosted},
		{labels: []string{"windows", "self-hosted"}, want: SelfHosted},
		{labels: nil, want: Linux},
		{labels: []string{"custom-large-runner"}, want: Linux},
	}

	for _, tt := range tests {
		got := RunnerOSOf(&github.WorkflowJob{Labels: tt.labels})
		if got != tt.want {
			t.Errorf("RunnerOSOf(%v) = %s, want %s", tt.labels, got, tt.want)
		}
	}
}

func TestEstimator_EstimateRun(t *testing.T) {
	estimator := NewEstimator(nil)

	jobs := []*github.WorkflowJob{
		job(1, "lint", 90*time.Second, "ubuntu-latest"),
		job(2, "test-windows", 10*time.Minute, "windows-latest"),
		job(3, "test-macos", 5*time.Minute+time.Second, "macos-latest"),
		job(4, "deploy", 30*time.Minute, "self-hosted"),
		{ID: gogithub.Int64(5), Name: gogithub.String("skipped")},
		nil,
	}

	got := estimator.EstimateRun(jobs)

	want := &RunEstimate{
		Currency:     "USD",
		TotalMinutes: 2 + 10 + 6 + 30,
		TotalCost:    "0.6560",
		Jobs: []JobEstimate{
			{ID: 1, Name: "lint", Runner: Linux, Minutes: 2, Cost: "0.0160"},
			{ID: 2, Name: "test-windows", Runner: Windows, Minutes: 10, Cost: "0.1600"},
			{ID: 3, Name: "test-macos", Runner: MacOS, Minutes: 6, Cost: "0.4800"},
			{ID: 4, Name: "deploy", Runner: SelfHosted, Minutes: 30, Cost: "0.0000"},
			{ID: 5, Name: "skipped", Runner: Linux, Minutes: 0, Cost: "0.0000"},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EstimateRun() mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimator_EstimateRun_empty(t *testing.T) {
	got := NewEstimator(nil).EstimateRun(nil)
	if got.TotalMinutes != 0 || got.TotalCost != "0.0000" || len(got.Jobs) != 0 {
		t.Errorf("EstimateRun(nil) = %+v, want zero estimate", got)
	}
}

func TestEstimator_CostOf(t *testing.T) {
	estimator := NewEstimator(nil)

	tests := []struct {
		runner RunnerOS
		d      time.Duration
		want   float64
	}{
		{runner: Linux, d: time.Minute, want: 0.008},
		{runner: Windows, d: 90 * time.Second, want: 0.032},
		{runner: MacOS, d: 0, want: 0},
		{runner: SelfHosted, d: time.Hour, want: 0},
	}

	for _, tt := range tests {
		got := estimator.CostOf(tt.runner, tt.d)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("CostOf(%s, %s) = %v, want %v", tt.runner, tt.d, got, tt.want)
		}
	}
}

func TestEstimator_UpdateConfig(t *testing.T) {
	estimator := NewEstimator(nil)

	estimator.UpdateConfig(&Config{
		Currency:      "EUR",
		RatePerMinute: map[RunnerOS]float64{Linux: 1},
	})
	got := estimator.EstimateJob(job(1, "build", 2*time.Minute, "ubuntu-latest"))
	if got.Cost != "2.0000" {
		t.Errorf("Cost = %s, want 2.0000", got.Cost)
	}

	estimator.UpdateConfig(nil)
	if estimator.GetConfig().Currency != "EUR" {
		t.Error("UpdateConfig(nil) should keep the existing configuration")
	}
}

func TestEstimator_concurrent_access(t *testing.T) {
	estimator := NewEstimator(nil)
	jobs := []*github.WorkflowJob{job(1, "build", time.Minute, "ubuntu-latest")}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			estimator.EstimateRun(jobs)
		}()
		go func() {
			defer wg.Done()
			estimator.UpdateConfig(DefaultConfig())
		}()
	}
	wg.Wait()
}
