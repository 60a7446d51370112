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

// Package cost provides billable-minute and cost estimation for workflow runs.
//
// This package estimates what a GitHub Actions workflow run cost by looking at
// the jobs it executed. Each job's duration is rounded up to whole minutes, the
// way GitHub bills hosted runners, and multiplied by a per-minute rate chosen
// from the runner operating system.
//
// Key features:
//   - Per-job and per-run minute totals
//   - Configurable per-minute rates per runner OS
//   - Runner OS detection from job labels
//   - Thread-safe configuration updates
//
// Cost Calculation:
//
//	Minutes = ceil(CompletedAt - StartedAt)
//	Job Cost = Minutes × Rate[runner OS]
//	Run Cost = sum of Job Cost
//
// Jobs without both timestamps (queued or skipped) count as zero minutes.
//
// Default Pricing:
//
//   - Linux: $0.008 per minute
//   - Windows: $0.016 per minute
//   - macOS: $0.08 per minute
//   - Self-hosted: free
//
// Example usage:
//
//	estimator := cost.NewEstimator(nil)
//	jobs, _, err := client.WorkflowRunJobs(ctx, repo, runID, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	estimate := estimator.EstimateRun(jobs.Jobs)
//	fmt.Printf("%d minutes, %s %s\n", estimate.TotalMinutes, estimate.TotalCost, estimate.Currency)
package cost
