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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikelane/ghactions/internal/github"
	"github.com/mikelane/ghactions/internal/output"
)

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Inspect workflow jobs and their logs",
	}

	cmd.AddCommand(
		newJobsListCmd(a),
		newJobsGetCmd(a),
		newJobsLogsCmd(a),
	)
	return cmd
}

func newJobsListCmd(a *app) *cobra.Command {
	var opts github.JobsOptions

	cmd := &cobra.Command{
		Use:   "list <run-id>",
		Short: "List the jobs of a workflow run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			runID, err := parseID("run", args[0])
			if err != nil {
				return err
			}

			jobs, _, err := client.WorkflowRunJobs(cmd.Context(), repo, runID, &opts)
			if err != nil {
				return err
			}
			return a.printer.Print(jobs, output.JobRows(jobs.Jobs...))
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "latest or all attempts")
	addPageFlags(cmd, &opts.ListOptions)
	return cmd
}

func newJobsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show a workflow job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("job", args[0])
			if err != nil {
				return err
			}

			job, _, err := client.WorkflowJob(cmd.Context(), repo, id)
			if err != nil {
				return err
			}
			return a.printer.Print(job, output.JobRows(job))
		},
	}
}

func newJobsLogsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "logs <job-id>",
		Short: "Print the log download URL of a job, or download it with --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("job", args[0])
			if err != nil {
				return err
			}

			u, err := client.WorkflowJobLogs(cmd.Context(), repo, id)
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

	cmd.Flags().StringVarP(&file, "file", "f", "", "Download the log to this path (- for stdout)")
	return cmd
}
