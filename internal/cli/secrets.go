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
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/mikelane/ghactions/internal/controller"
	"github.com/mikelane/ghactions/internal/github"
	"github.com/mikelane/ghactions/internal/output"
)

func newSecretsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "secrets",
		Aliases: []string{"secret"},
		Short:   "Manage repository Actions secrets",
	}

	cmd.AddCommand(
		newSecretsPublicKeyCmd(a),
		newSecretsListCmd(a),
		newSecretsGetCmd(a),
		newSecretsSetCmd(a),
		newSecretsDeleteCmd(a),
		newSecretsSyncCmd(a),
	)
	return cmd
}

func newSecretsPublicKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "public-key",
		Short: "Show the public key used to encrypt secrets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			key, _, err := client.PublicKey(cmd.Context(), repo)
			if err != nil {
				return err
			}
			return a.printer.Print(key, output.PublicKeyRows(key))
		},
	}
}

func newSecretsListCmd(a *app) *cobra.Command {
	var page github.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List secret names (values are never returned)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			secrets, _, err := client.Secrets(cmd.Context(), repo, &page)
			if err != nil {
				return err
			}
			return a.printer.Print(secrets, output.SecretRows(secrets.Secrets...))
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}

func newSecretsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show secret metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			secret, _, err := client.Secret(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			return a.printer.Print(secret, output.SecretRows(secret))
		},
	}
}

func newSecretsSetCmd(a *app) *cobra.Command {
	var (
		value    string
		fromFile string
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Encrypt and store a secret",
		Long: `Encrypt and store a secret.

The value is read from --value, --from-file, or standard input, in that order.
It is sealed locally with the repository public key; the plaintext never
leaves this machine.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			plaintext, err := secretValue(cmd, value, fromFile)
			if err != nil {
				return err
			}

			if _, err := client.SetSecret(cmd.Context(), repo, args[0], plaintext); err != nil {
				return err
			}
			a.printer.Message("Set secret %s in %s", args[0], repo)
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Secret value")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "Read the secret value from a file")
	cmd.MarkFlagsMutuallyExclusive("value", "from-file")
	return cmd
}

func secretValue(cmd *cobra.Command, value, fromFile string) ([]byte, error) {
	switch {
	case cmd.Flags().Changed("value"):
		return []byte(value), nil
	case fromFile != "":
		b, err := os.ReadFile(fromFile)
		if err != nil {
			return nil, fmt.Errorf("read secret file: %w", err)
		}
		return b, nil
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read secret from stdin: %w", err)
		}
		return b, nil
	}
}

func newSecretsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, repo, err := a.target()
			if err != nil {
				return err
			}

			ok, err := client.DeleteSecret(cmd.Context(), repo, args[0])
			return a.reportBool(ok, err, fmt.Sprintf("Deleted secret %s", args[0]))
		},
	}
}

func newSecretsSyncCmd(a *app) *cobra.Command {
	var namespace, name string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push every key of a Kubernetes Secret as an Actions secret",
		Long: `Push every key of a Kubernetes Secret as an Actions secret.

Keys are converted to secret names by upper-casing them and replacing '-' and
'.' with '_'. Keys that do not form a valid name are skipped. Use the
operator command to keep Secrets in sync continuously.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gh, repo, err := a.target()
			if err != nil {
				return err
			}
			kube, err := a.kubernetes()
			if err != nil {
				return err
			}

			var secret corev1.Secret
			if err := kube.Get(cmd.Context(), client.ObjectKey{Namespace: namespace, Name: name}, &secret); err != nil {
				return fmt.Errorf("failed to get Secret %s/%s: %w", namespace, name, err)
			}

			keys := make([]string, 0, len(secret.Data))
			for key := range secret.Data {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			var synced int
			seen := make(map[string]string, len(keys))
			for _, key := range keys {
				secretName, err := controller.SecretName(key)
				if err != nil {
					a.logger.Info("Skipping key", "key", key, "reason", err.Error())
					continue
				}
				if other, dup := seen[secretName]; dup {
					a.logger.Info("Skipping key that collides with another key", "key", key, "other", other, "name", secretName)
					continue
				}
				seen[secretName] = key
				if _, err := gh.SetSecret(cmd.Context(), repo, secretName, secret.Data[key]); err != nil {
					return fmt.Errorf("failed to set %s: %w", secretName, err)
				}
				a.printer.Message("Set secret %s", secretName)
				synced++
			}
			if synced == 0 && len(keys) > 0 {
				return errors.New("no key of the Secret is a valid Actions secret name")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "Namespace of the Secret")
	cmd.Flags().StringVar(&name, "name", "", "Name of the Secret (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// kubernetes returns a client for the cluster in the current kubeconfig context
func (a *app) kubernetes() (client.Client, error) {
	if a.kube != nil {
		return a.kube, nil
	}

	cfg, err := ctrl.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	kube, err := client.New(cfg, client.Options{Scheme: newScheme()})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}
	a.kube = kube
	return kube, nil
}

func newScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	return scheme
}
