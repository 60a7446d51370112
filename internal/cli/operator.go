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

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/mikelane/ghactions/internal/cleanup"
	"github.com/mikelane/ghactions/internal/controller"
	"github.com/mikelane/ghactions/internal/github"
)

func newOperatorCmd(a *app) *cobra.Command {
	var (
		pruneRepos  []string
		withWebhook bool
		probeAddr   string
	)

	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Run the Kubernetes operator",
		Long: `Run the Kubernetes operator.

The operator syncs Secrets annotated with ghactions.io/repository into Actions
secrets of that repository. With --prune-repo it also prunes stale artifacts
every --prune-interval, and with --webhook it serves the re-run webhook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.registry = ctrlmetrics.Registry

			client, err := a.github()
			if err != nil {
				return err
			}

			restConfig, err := ctrl.GetConfig()
			if err != nil {
				return fmt.Errorf("failed to load kubeconfig: %w", err)
			}

			mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
				Scheme:                 newScheme(),
				Metrics:                metricsserver.Options{BindAddress: a.cfg.Metrics.Addr},
				HealthProbeBindAddress: probeAddr,
			})
			if err != nil {
				return fmt.Errorf("failed to create manager: %w", err)
			}

			if err := (&controller.SecretSyncReconciler{
				Client:  mgr.GetClient(),
				Scheme:  mgr.GetScheme(),
				Secrets: client,
			}).SetupWithManager(mgr); err != nil {
				return fmt.Errorf("failed to set up secret sync controller: %w", err)
			}

			if len(pruneRepos) > 0 {
				repos := make([]github.Repository, 0, len(pruneRepos))
				for _, ref := range pruneRepos {
					repo, err := github.ParseRepository(ref)
					if err != nil {
						return err
					}
					repos = append(repos, repo)
				}

				scheduler, err := cleanup.NewScheduler(client, repos, cleanup.Policy{
					MaxAge: a.cfg.Prune.MaxAge,
					Keep:   a.cfg.Prune.Keep,
				})
				if err != nil {
					return err
				}
				interval := a.cfg.Prune.Interval
				if err := mgr.Add(manager.RunnableFunc(func(ctx context.Context) error {
					return scheduler.Start(ctx, interval)
				})); err != nil {
					return fmt.Errorf("failed to add prune scheduler: %w", err)
				}
			}

			if withWebhook {
				server, err := a.webhookServer(ctrlmetrics.Registry)
				if err != nil {
					return err
				}
				if err := mgr.Add(manager.RunnableFunc(server.Start)); err != nil {
					return fmt.Errorf("failed to add webhook server: %w", err)
				}
			}

			if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
				return fmt.Errorf("failed to set up health check: %w", err)
			}
			if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
				return fmt.Errorf("failed to set up ready check: %w", err)
			}

			a.logger.Info("Starting operator", "pruneRepositories", len(pruneRepos), "webhook", withWebhook)
			return mgr.Start(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&pruneRepos, "prune-repo", nil, "Repository whose artifacts are pruned (repeatable)")
	flags.Duration("prune-interval", 0, "Time between prune passes (default prune.interval)")
	flags.BoolVar(&withWebhook, "webhook", false, "Also serve the re-run webhook")
	flags.String("metrics-addr", ":8081", "Address the metrics endpoint binds to")
	flags.StringVar(&probeAddr, "health-probe-addr", ":8082", "Address the health probe endpoint binds to")
	addPruneFlags(cmd)
	addWebhookFlags(cmd)
	return cmd
}
