/*
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


package controller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	"github.com/mikelane/ghactions/internal/github"
)

const (
	// AnnotationRepository names the repository a Secret is synced to
	AnnotationRepository = "ghactions.io/repository"
	// AnnotationSyncedHash records the content hash of the last successful sync
	AnnotationSyncedHash = "ghactions.io/synced-hash"
	// AnnotationSyncedKeys records the Actions secret names pushed by the last sync
	AnnotationSyncedKeys = "ghactions.io/synced-keys"
	// AnnotationPrune enables deletion of Actions secrets whose key was removed
	AnnotationPrune = "ghactions.io/prune"

	requeueAfterError = time.Minute
)

var (
	// ErrInvalidSecretName is returned for keys that cannot become Actions secret names
	ErrInvalidSecretName = errors.New("invalid actions secret name")

	secretNamePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
)

// SecretsAPI is the subset of the Actions client the reconciler needs
type SecretsAPI interface {
	SetSecret(ctx context.Context, repo github.Repository, name string, plaintext []byte) (*github.Response, error)
	DeleteSecret(ctx context.Context, repo github.Repository, name string) (bool, error)
}

// SecretSyncReconciler mirrors annotated Kubernetes Secrets into GitHub Actions secrets
type SecretSyncReconciler struct {
	client.Client
	Scheme  *runtime.Scheme
	Secrets SecretsAPI
}

// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch;update;patch

// Reconcile is part of the main kubernetes reconciliation loop which aims to
// move the current state of the cluster closer to the desired state.
//
// Each data key of the Secret becomes an Actions secret in the annotated
// repository. Unchanged Secrets are skipped using the synced-hash annotation.
// Failures to reach GitHub requeue after one minute.
func (r *SecretSyncReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := logf.FromContext(ctx)

	var secret corev1.Secret
	if err := r.Get(ctx, req.NamespacedName, &secret); err != nil {
		// Resource not found, return without error
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	ref, ok := secret.Annotations[AnnotationRepository]
	if !ok {
		return ctrl.Result{}, nil
	}

	repo, err := github.ParseRepository(ref)
	if err != nil {
		// Not requeued; editing the annotation triggers a new reconcile
		log.Error(err, "Invalid repository annotation", "annotation", ref)
		return ctrl.Result{}, nil
	}

	// Sorted so the same key wins a name collision on every reconcile
	names := make(map[string]string, len(secret.Data))
	for _, key := range sortedKeys(secret.Data) {
		name, err := SecretName(key)
		if err != nil {
			log.Info("Skipping key that cannot be an Actions secret", "key", key, "reason", err.Error())
			continue
		}
		if other, dup := names[name]; dup {
			log.Info("Skipping key that collides with another key", "key", key, "other", other, "name", name)
			continue
		}
		names[name] = key
	}

	hash := contentHash(repo, names, secret.Data)
	if secret.Annotations[AnnotationSyncedHash] == hash {
		log.V(1).Info("Secret unchanged since last sync", "repository", repo.String())
		return ctrl.Result{}, nil
	}

	synced := sortedKeys(names)
	for _, name := range synced {
		if _, err := r.Secrets.SetSecret(ctx, repo, name, secret.Data[names[name]]); err != nil {
			log.Error(err, "Failed to set Actions secret", "repository", repo.String(), "name", name)
			return ctrl.Result{RequeueAfter: requeueAfterError}, nil
		}
	}

	var pruned []string
	if secret.Annotations[AnnotationPrune] == "true" {
		for _, name := range splitKeys(secret.Annotations[AnnotationSyncedKeys]) {
			if _, keep := names[name]; keep {
				continue
			}
			if _, err := r.Secrets.DeleteSecret(ctx, repo, name); err != nil {
				log.Error(err, "Failed to delete Actions secret", "repository", repo.String(), "name", name)
				return ctrl.Result{RequeueAfter: requeueAfterError}, nil
			}
			pruned = append(pruned, name)
		}
	}

	patch := client.MergeFrom(secret.DeepCopy())
	secret.Annotations[AnnotationSyncedHash] = hash
	secret.Annotations[AnnotationSyncedKeys] = strings.Join(synced, ",")
	if err := r.Patch(ctx, &secret, patch); err != nil {
		log.Error(err, "Failed to record sync state")
		return ctrl.Result{}, err
	}

	log.Info("Synced Actions secrets",
		"repository", repo.String(),
		"synced", len(synced),
		"pruned", len(pruned))

	return ctrl.Result{}, nil
}

// SetupWithManager sets up the controller with the Manager.
func (r *SecretSyncReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.Secret{}, builder.WithPredicates(predicate.NewPredicateFuncs(hasRepositoryAnnotation))).
		Named("secretsync").
		Complete(r)
}

func hasRepositoryAnnotation(obj client.Object) bool {
	_, ok := obj.GetAnnotations()[AnnotationRepository]
	return ok
}

// SecretName converts a Secret data key into an Actions secret name.
// Letters are upper-cased and '-' and '.' become '_'. The result must be a
// valid Actions secret name and must not use the reserved GITHUB_ prefix.
func SecretName(key string) (string, error) {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	if !secretNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSecretName, key)
	}
	if strings.HasPrefix(name, "GITHUB_") {
		return "", fmt.Errorf("%w: %q uses the reserved GITHUB_ prefix", ErrInvalidSecretName, key)
	}
	return name, nil
}

// contentHash fingerprints everything a sync pushes so unchanged Secrets can be skipped
func contentHash(repo github.Repository, names map[string]string, data map[string][]byte) string {
	h := sha256.New()
	h.Write([]byte(repo.String()))
	for _, name := range sortedKeys(names) {
		h.Write([]byte{0})
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(data[names[name]])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
