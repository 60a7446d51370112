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

func newWorkflowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflows",
		Aliases: []string{"workflow"},
		Short:   "List, dispatch, enable and disable workflows",
		Long: `List, dispatch, enable and disable workflows.

A workflow is identified by its numeric ID or its file name, e.g. ci.yml.`,
	}

	cmd.AddCommand(
		newWorkflowsListCmd(a),
		newWorkflowsGetCmd(a),
		newWorkflowsDispatchCmd(a),
		newWorkflowsEnableCmd(a),
		newWorkflowsDisableCmd(a),
	)
	return cmd
}

func newWorkflowsListCmd(a *app) *cobra.Command {
	var page github.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			workflows, _, err := client.Workflows(cmd.Context(), repo, &page)
			if err != nil {
				return err
			}
			return a.printer.Print(workflows, output.WorkflowRows(workflows.Workflows...))
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}

func newWorkflowsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <workflow>",
		Short: "Show a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			workflow, _, err := client.Workflow(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return a.printer.Print(workflow, output.WorkflowRows(workflow))
		},
	}
}

func newWorkflowsDispatchCmd(a *app) *cobra.Command {
	var (
		ref    string
		inputs map[string]string
	)

	cmd := &cobra.Command{
		Use:   "dispatch <workflow>",
		Short: "Trigger a workflow_dispatch event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			var in map[string]any
			if len(inputs) > 0 {
				in = make(map[string]any, len(inputs))
				for k, v := range inputs {
					in[k] = v
				}
			}

			ok, err := client.DispatchWorkflow(cmd.Context(), repo, args[0], ref, in)
			return a.reportBool(ok, err, fmt.Sprintf("Dispatched %s on %s", args[0], ref))
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Branch or tag to run the workflow on (required)")
	cmd.Flags().StringToStringVarP(&inputs, "input", "f", nil, "Workflow input as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("ref")
	return cmd
}

func newWorkflowsEnableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <workflow>",
		Short: "Enable a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			ok, err := client.EnableWorkflow(cmd.Context(), repo, args[0])
			return a.reportBool(ok, err, fmt.Sprintf("Enabled %s", args[0]))
		},
	}
}

func newWorkflowsDisableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <workflow>",
		Short: "Disable a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			ok, err := client.DisableWorkflow(cmd.Context(), repo, args[0])
			return a.reportBool(ok, err, fmt.Sprintf("Disabled %s", args[0]))
		},
	}
}
