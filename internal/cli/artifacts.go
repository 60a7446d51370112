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
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikelane/ghactions/internal/cleanup"
	"github.com/mikelane/ghactions/internal/github"
	"github.com/mikelane/ghactions/internal/output"
)

func newArtifactsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artifacts",
		Aliases: []string{"artifact"},
		Short:   "List, download and delete workflow artifacts",
	}

	cmd.AddCommand(
		newArtifactsListCmd(a),
		newArtifactsGetCmd(a),
		newArtifactsDownloadCmd(a),
		newArtifactsDeleteCmd(a),
		newArtifactsPruneCmd(a),
	)
	return cmd
}

func newArtifactsListCmd(a *app) *cobra.Command {
	var (
		runID int64
		name  string
		page  github.ListOptions
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List artifacts for a repository or a single workflow run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			var list *github.ArtifactList
			if runID > 0 {
				list, _, err = client.RunArtifacts(cmd.Context(), repo, runID, &page)
			} else {
				list, _, err = client.Artifacts(cmd.Context(), repo, &github.ArtifactsOptions{Name: name, ListOptions: page})
			}
			if err != nil {
				return err
			}
			return a.printer.Print(list, output.ArtifactRows(list.Artifacts...))
		},
	}

	cmd.Flags().Int64Var(&runID, "run", 0, "Only artifacts of this workflow run")
	cmd.Flags().StringVar(&name, "name", "", "Only artifacts with this exact name")
	addPageFlags(cmd, &page)
	return cmd
}

func newArtifactsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <artifact-id>",
		Short: "Show a single artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("artifact", args[0])
			if err != nil {
				return err
			}

			artifact, _, err := client.Artifact(cmd.Context(), repo, id)
			if err != nil {
				return err
			}
			return a.printer.Print(artifact, output.ArtifactRows(artifact))
		},
	}
}

func newArtifactsDownloadCmd(a *app) *cobra.Command {
	var (
		file    string
		urlOnly bool
	)

	cmd := &cobra.Command{
		Use:   "download <artifact-id>",
		Short: "Download an artifact archive",
		Long: `Download an artifact archive.

GitHub answers with a short-lived signed URL which is followed without
sending the API token. With --url only the URL is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("artifact", args[0])
			if err != nil {
				return err
			}

			u, err := client.DownloadArtifact(cmd.Context(), repo, id)
			if err != nil {
				return err
			}
			if urlOnly {
				fmt.Fprintln(cmd.OutOrStdout(), u.String())
				return nil
			}

			if file == "" {
				artifact, _, err := client.Artifact(cmd.Context(), repo, id)
				if err != nil {
					return err
				}
				file = artifact.GetName() + ".zip"
			}
			if err := downloadTo(cmd, client, u, file); err != nil {
				return err
			}
			a.printer.Message("Downloaded: %s", file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Destination path (default <artifact-name>.zip, - for stdout)")
	cmd.Flags().BoolVar(&urlOnly, "url", false, "Print the download URL instead of downloading")
	return cmd
}

func newArtifactsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <artifact-id>",
		Short: "Delete an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}
			id, err := parseID("artifact", args[0])
			if err != nil {
				return err
			}

			ok, err := client.DeleteArtifact(cmd.Context(), repo, id)
			return a.reportBool(ok, err, fmt.Sprintf("Deleted artifact %d", id))
		},
	}
}

func newArtifactsPruneCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete artifacts older than a maximum age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			policy := cleanup.Policy{MaxAge: a.cfg.Prune.MaxAge, Keep: a.cfg.Prune.Keep, DryRun: dryRun}

			scheduler, err := cleanup.NewScheduler(client, []github.Repository{repo}, policy)
			if err != nil {
				return err
			}
			report, err := scheduler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			if err := a.printer.Print(report, output.PruneRows(report)); err != nil {
				return err
			}
			verb := "Deleted"
			if dryRun {
				verb = "Would delete"
			}
			a.printer.Message("%s %d of %d artifacts (%d kept or expired)", verb, len(report.Candidates), report.Scanned, report.Skipped)
			return nil
		},
	}

	addPruneFlags(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be deleted")
	return cmd
}

// target returns the client together with the resolved repository
func (a *app) target() (*github.Client, github.Repository, error) {
	repo, err := a.repository()
	if err != nil {
		return nil, repo, err
	}
	client, err := a.github()
	return client, repo, err
}

func addPruneFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("max-age", 7*24*time.Hour, "Delete artifacts older than this")
	cmd.Flags().StringSlice("keep", nil, "Name patterns never deleted, e.g. release-*")
}

func addPageFlags(cmd *cobra.Command, page *github.ListOptions) {
	cmd.Flags().IntVar(&page.Page, "page", 0, "Page number to fetch")
	cmd.Flags().IntVar(&page.PerPage, "per-page", 0, "Results per page (max 100)")
}

// downloadTo streams u into file, or stdout for "-"
func downloadTo(cmd *cobra.Command, client *github.Client, u *url.URL, file string) error {
	if file == "-" {
		return client.Download(cmd.Context(), u, cmd.OutOrStdout())
	}
	return output.WriteFileAtomically(file, func(f *os.File) error {
		return client.Download(cmd.Context(), u, f)
	})
}
