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

// Package cli implements the ghactions command tree.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/mikelane/ghactions/internal/config"
	"github.com/mikelane/ghactions/internal/github"
	"github.com/mikelane/ghactions/internal/logging"
	"github.com/mikelane/ghactions/internal/output"
)

// Version is set at build time with -ldflags "-X github.com/mikelane/ghactions/internal/cli.Version=..."
var Version = "dev"

// flagKeys maps config keys to the flags overriding them. Only flags defined
// on the running command are bound.
var flagKeys = map[string]string{
	"token":                "token",
	"base_url":             "base-url",
	"output":               "output",
	"log.level":            "log-level",
	"log.development":      "log-development",
	"retry.max_retries":    "max-retries",
	"rate_limit.rps":       "rps",
	"webhook.addr":         "addr",
	"webhook.port":         "port",
	"webhook.secret":       "secret",
	"webhook.max_attempts": "max-attempts",
	"webhook.conclusions":  "conclusion",
	"prune.max_age":        "max-age",
	"prune.keep":           "keep",
	"prune.interval":       "prune-interval",
	"metrics.addr":         "metrics-addr",
}

// app carries state shared by every command once flags are parsed
type app struct {
	v          *viper.Viper
	configFile string
	repoRef    string

	cfg      *config.Config
	logger   logr.Logger
	printer  *output.Printer
	registry prometheus.Registerer
	client   *github.Client
	kube     client.Client
}

// NewRootCommand builds the ghactions command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: config.New()})
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ghactions",
		Short:         "Manage GitHub Actions artifacts, secrets, workflows, jobs and runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/ghactions/config.yaml)")
	flags.StringVarP(&a.repoRef, "repo", "R", "", "Repository as owner/name, URL or numeric ID (default $GITHUB_REPOSITORY)")
	flags.StringP("output", "o", "table", "Output format: json, yaml or table")
	flags.String("token", "", "GitHub token (default $GHACTIONS_TOKEN or $GITHUB_TOKEN)")
	flags.String("base-url", "", "API base URL for GitHub Enterprise Server")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.Bool("log-development", false, "Human-readable console logs")
	flags.Int("max-retries", github.DefaultRetryConfig().MaxRetries, "Retries for transient API failures (0 disables)")
	flags.Float64("rps", 0, "Throttle API calls to this many requests per second (0 disables)")

	cmd.AddCommand(
		newArtifactsCmd(a),
		newSecretsCmd(a),
		newWorkflowsCmd(a),
		newJobsCmd(a),
		newRunsCmd(a),
		newWebhookCmd(a),
		newOperatorCmd(a),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM arrives, and exits non-zero on failure
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags(), flagKeys); err != nil {
		return err
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = logging.Setup(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(format, cmd.OutOrStdout())

	cmd.SetContext(logr.NewContext(cmd.Context(), a.logger))
	return nil
}

// github returns the API client, creating it on first use
func (a *app) github() (*github.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	opts := append(a.cfg.ClientOptions(),
		github.WithUserAgent("ghactions/"+Version),
		github.WithLogger(a.logger.WithName("github")),
	)
	if a.registry != nil {
		opts = append(opts, github.WithMetrics(github.NewMetrics(a.registry)))
	}

	client, err := github.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	a.client = client
	return client, nil
}

// repository resolves --repo, falling back to $GITHUB_REPOSITORY as set inside Actions
func (a *app) repository() (github.Repository, error) {
	ref := a.repoRef
	if ref == "" {
		ref = os.Getenv("GITHUB_REPOSITORY")
	}
	if ref == "" {
		return github.Repository{}, errors.New("no repository given: use --repo or set GITHUB_REPOSITORY")
	}
	return github.ParseRepository(ref)
}

// parseID parses a positional numeric identifier
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", kind, s)
	}
	return id, nil
}

// reportBool prints the outcome of a mutating call; not found is an error for the CLI
func (a *app) reportBool(ok bool, err error, done string) error {
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not found")
	}
	a.printer.Message("%s", done)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ghactions",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ghactions", Version)
		},
	}
}
