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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mikelane/ghactions/internal/webhook"
)

func newWebhookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Receive GitHub webhooks",
	}

	cmd.AddCommand(newWebhookServeCmd(a))
	return cmd
}

func newWebhookServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Re-run failed workflow runs from workflow_run webhooks",
		Long: `Re-run failed workflow runs from workflow_run webhooks.

The server listens on /webhook for deliveries signed with the webhook secret.
A completed run whose conclusion is one of --conclusion is re-run while its
attempt number is below --max-attempts. /healthz and /metrics are served on
the same port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := prometheus.NewRegistry()
			a.registry = registry

			server, err := a.webhookServer(registry)
			if err != nil {
				return err
			}
			return server.Start(cmd.Context())
		},
	}

	addWebhookFlags(cmd)
	return cmd
}

func addWebhookFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("addr", "", "Address to listen on")
	flags.Int("port", 8080, "Port to listen on")
	flags.String("secret", "", "Webhook secret (default $GHACTIONS_WEBHOOK_SECRET)")
	flags.Int("max-attempts", 3, "Highest run attempt that is re-run automatically")
	flags.StringSlice("conclusion", []string{"failure", "timed_out"}, "Run conclusions that trigger a re-run")
}

// webhookServer builds the server from configuration, registering its metrics in registry
func (a *app) webhookServer(registry webhook.Registry) (*webhook.Server, error) {
	client, err := a.github()
	if err != nil {
		return nil, err
	}

	return webhook.NewServer(webhook.Config{
		Addr:        a.cfg.Webhook.Addr,
		Port:        a.cfg.Webhook.Port,
		Secret:      a.cfg.Webhook.Secret,
		Conclusions: a.cfg.Webhook.Conclusions,
		MaxAttempts: a.cfg.Webhook.MaxAttempts,
		Registry:    registry,
	}, client)
}
