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

package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mikelane/ghactions/internal/cost"
	"github.com/mikelane/ghactions/internal/github"
	"github.com/mikelane/ghactions/internal/output"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"run"},
		Short:   "List, re-run, cancel and delete workflow runs",
	}

	cmd.AddCommand(
		newRunsListCmd(a),
		newRunsGetCmd(a),
		newRunsActionCmd(a, "rerun", "Re-run a workflow run", "Re-run requested for run %d",
			(*github.Client).RerunWorkflowRun),
		newRunsActionCmd(a, "cancel", "Cancel a workflow run", "Cancel requested for run %d",
			(*github.Client).CancelWorkflowRun),
		newRunsActionCmd(a, "delete", "Delete a workflow run", "Deleted run %d",
			(*github.Client).DeleteWorkflowRun),
		newRunsLogsCmd(a),
		newRunsActionCmd(a, "delete-logs", "Delete the logs of a workflow run", "Deleted logs of run %d",
			(*github.Client).DeleteWorkflowRunLogs),
		newRunsCostCmd(a),
	)
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var (
		workflow string
		opts     github.WorkflowRunsOptions
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflow runs of a repository or a single workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			var runs *github.WorkflowRuns
			if workflow != "" {
				runs, _, err = client.WorkflowRuns(cmd.Context(), repo, workflow, &opts)
			} else {
				runs, _, err = client.AllWorkflowRuns(cmd.Context(), repo, &opts)
			}
			if err != nil {
				return err
			}
			return a.printer.Print(runs, output.RunRows(runs.WorkflowRuns...))
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&workflow, "workflow", "w", "", "Workflow ID or file name")
	flags.StringVar(&opts.Actor, "actor", "", "Only runs triggered by this user")
	flags.StringVarP(&opts.Branch, "branch", "b", "", "Only runs on this branch")
	flags.StringVarP(&opts.Event, "event", "e", "", "Only runs triggered by this event")
	flags.StringVarP(&opts.Status, "status", "s", "", "Only runs with this status or conclusion")
	flags.StringVar(&opts.Created, "created", "", "Only runs created in this date range, e.g. >=2025-01-01")
	flags.StringVar(&opts.HeadSHA, "head-sha", "", "Only runs for this commit")
	flags.BoolVar(&opts.ExcludePullRequests, "exclude-pull-requests", false, "Omit pull request data from the response")
	addPageFlags(cmd, &opts.ListOptions)
	return cmd
}

func newRunsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show a workflow run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("run", args[0])
			if err != nil {
				return err
			}

			run, _, err := client.WorkflowRun(cmd.Context(), repo, id)
			if err != nil {
				return err
			}
			return a.printer.Print(run, output.RunRows(run))
		},
	}
}

// runAction is a mutating run endpoint reporting success as a boolean
type runAction func(c *github.Client, ctx context.Context, repo github.Repository, id int64) (bool, error)

func newRunsActionCmd(a *app, use, short, done string, action runAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <run-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("run", args[0])
			if err != nil {
				return err
			}

			ok, err := action(client, cmd.Context(), repo, id)
			return a.reportBool(ok, err, fmt.Sprintf(done, id))
		},
	}
}

func newRunsLogsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Print the log archive URL of a run, or download it with --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("run", args[0])
			if err != nil {
				return err
			}

			u, err := client.WorkflowRunLogs(cmd.Context(), repo, id)
			if err != nil {
				return err
			}
			if file == "" {
				fmt.Fprintln(cmd.OutOrStdout(), u.String())
				return nil
			}
			return downloadTo(cmd, client, u, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Download the log archive to this path (- for stdout)")
	return cmd
}

func newRunsCostCmd(a *app) *cobra.Command {
	var (
		currency string
		rates    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "cost <run-id>",
		Short: "Estimate billable minutes and cost of a workflow run",
		Long: `Estimate billable minutes and cost of a workflow run.

Each job is rounded up to whole minutes and priced by runner OS. Override
per-minute rates with --rate linux=0.008,windows=0.016,macos=0.08.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			runID, err := parseID("run", args[0])
			if err != nil {
				return err
			}

			cfg := cost.DefaultConfig()
			if currency != "" {
				cfg.Currency = currency
			}
			for name, value := range rates {
				rate, err := strconv.ParseFloat(value, 64)
				if err != nil || rate < 0 {
					return fmt.Errorf("invalid rate %s=%s", name, value)
				}
				cfg.RatePerMinute[cost.RunnerOS(name)] = rate
			}

			jobs, err := allJobs(cmd, client, repo, runID)
			if err != nil {
				return err
			}

			estimate := cost.NewEstimator(cfg).EstimateRun(jobs)
			return a.printer.Print(estimate, output.EstimateRows(estimate))
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "Currency label for the estimate")
	cmd.Flags().StringToStringVar(&rates, "rate", nil, "Per-minute rate by runner OS (linux, windows, macos, self-hosted)")
	return cmd
}

// allJobs pages through every job of a run
func allJobs(cmd *cobra.Command, client *github.Client, repo github.Repository, runID int64) ([]*github.WorkflowJob, error) {
	opts := &github.JobsOptions{ListOptions: github.ListOptions{PerPage: 100}}

	var jobs []*github.WorkflowJob
	for {
		page, resp, err := client.WorkflowRunJobs(cmd.Context(), repo, runID, opts)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, page.Jobs...)
		if resp == nil || resp.NextPage == 0 {
			return jobs, nil
		}
		opts.Page = resp.NextPage
	}
}
