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
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/mikelane/ghactions/internal/github"
)

type fakeSecrets struct {
	mu      sync.Mutex
	set     map[string]string
	deleted []string
	setErr  error
	repos   []string
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{set: map[string]string{}}
}

func (f *fakeSecrets) SetSecret(_ context.Context, repo github.Repository, name string, plaintext []byte) (*github.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return nil, f.setErr
	}
	f.repos = append(f.repos, repo.String())
	f.set[name] = string(plaintext)
	return &github.Response{}, nil
}

func (f *fakeSecrets) DeleteSecret(_ context.Context, _ github.Repository, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return true, nil
}

func (f *fakeSecrets) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.repos)
}

var _ = Describe("SecretSync Controller", func() {
	const resourceName = "ci-credentials"

	var (
		ctx                context.Context
		secrets            *fakeSecrets
		reconciler         *SecretSyncReconciler
		typeNamespacedName = types.NamespacedName{Name: resourceName, Namespace: "default"}
	)

	reconcileOnce := func() reconcile.Result {
		result, err := reconciler.Reconcile(ctx, reconcile.Request{NamespacedName: typeNamespacedName})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	fetch := func() *corev1.Secret {
		secret := &corev1.Secret{}
		Expect(k8sClient.Get(ctx, typeNamespacedName, secret)).To(Succeed())
		return secret
	}

	BeforeEach(func() {
		ctx = context.Background()
		secrets = newFakeSecrets()
		reconciler = &SecretSyncReconciler{
			Client:  k8sClient,
			Scheme:  scheme,
			Secrets: secrets,
		}
	})

	Describe("Scenario: Secret with repository annotation", func() {
		BeforeEach(func() {
			By("creating an annotated Secret")
			Expect(k8sClient.Create(ctx, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{
					Name:        resourceName,
					Namespace:   "default",
					Annotations: map[string]string{AnnotationRepository: "octo-org/octo-repo"},
				},
				Data: map[string][]byte{
					"npm-token":     []byte("npm_abc"),
					"docker.passwd": []byte("hunter2"),
				},
			})).To(Succeed())
		})

		It("pushes every key as an Actions secret", func() {
			result := reconcileOnce()
			Expect(result.RequeueAfter).To(BeZero())

			Expect(secrets.set).To(Equal(map[string]string{
				"NPM_TOKEN":     "npm_abc",
				"DOCKER_PASSWD": "hunter2",
			}))
			Expect(secrets.repos).To(HaveEach("octo-org/octo-repo"))
		})

		It("records the synced hash and names", func() {
			reconcileOnce()

			secret := fetch()
			Expect(secret.Annotations).To(HaveKey(AnnotationSyncedHash))
			Expect(secret.Annotations[AnnotationSyncedKeys]).To(Equal("DOCKER_PASSWD,NPM_TOKEN"))
		})

		It("skips a Secret that has not changed since the last sync", func() {
			reconcileOnce()
			Expect(secrets.calls()).To(Equal(2))

			reconcileOnce()
			Expect(secrets.calls()).To(Equal(2))
		})

		It("pushes again when a value changes", func() {
			reconcileOnce()

			secret := fetch()
			secret.Data["npm-token"] = []byte("npm_rotated")
			Expect(k8sClient.Update(ctx, secret)).To(Succeed())

			reconcileOnce()
			Expect(secrets.calls()).To(Equal(4))
			Expect(secrets.set["NPM_TOKEN"]).To(Equal("npm_rotated"))
		})

		It("requeues after a minute when GitHub rejects the update", func() {
			secrets.setErr = errors.New("503 service unavailable")

			result := reconcileOnce()
			Expect(result.RequeueAfter).To(Equal(time.Minute))
			Expect(fetch().Annotations).NotTo(HaveKey(AnnotationSyncedHash))
		})
	})

	Describe("Scenario: Removing a key", func() {
		create := func(prune string) {
			annotations := map[string]string{AnnotationRepository: "octo-org/octo-repo"}
			if prune != "" {
				annotations[AnnotationPrune] = prune
			}
			Expect(k8sClient.Create(ctx, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{
					Name:        resourceName,
					Namespace:   "default",
					Annotations: annotations,
				},
				Data: map[string][]byte{
					"KEEP":   []byte("1"),
					"REMOVE": []byte("2"),
				},
			})).To(Succeed())

			reconcileOnce()

			secret := fetch()
			delete(secret.Data, "REMOVE")
			Expect(k8sClient.Update(ctx, secret)).To(Succeed())
		}

		It("deletes the Actions secret when pruning is enabled", func() {
			create("true")

			reconcileOnce()
			Expect(secrets.deleted).To(Equal([]string{"REMOVE"}))
			Expect(fetch().Annotations[AnnotationSyncedKeys]).To(Equal("KEEP"))
		})

		It("leaves the Actions secret alone without pruning", func() {
			create("")

			reconcileOnce()
			Expect(secrets.deleted).To(BeEmpty())
		})
	})

	Describe("Scenario: Keys that cannot be Actions secrets", func() {
		It("skips reserved and invalid names", func() {
			Expect(k8sClient.Create(ctx, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{
					Name:        resourceName,
					Namespace:   "default",
					Annotations: map[string]string{AnnotationRepository: "octo-org/octo-repo"},
				},
				Data: map[string][]byte{
					"github-token": []byte("reserved"),
					"1password":    []byte("digit"),
					"valid":        []byte("ok"),
				},
			})).To(Succeed())

			reconcileOnce()
			Expect(secrets.set).To(Equal(map[string]string{"VALID": "ok"}))
		})
	})

	Describe("Scenario: Keys that map to the same name", func() {
		BeforeEach(func() {
			Expect(k8sClient.Create(ctx, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{
					Name:        resourceName,
					Namespace:   "default",
					Annotations: map[string]string{AnnotationRepository: "octo-org/octo-repo"},
				},
				Data: map[string][]byte{
					"db-pass": []byte("dash"),
					"db.pass": []byte("dot"),
				},
			})).To(Succeed())
		})

		It("always pushes the first key in sorted order", func() {
			reconcileOnce()
			Expect(secrets.set).To(Equal(map[string]string{"DB_PASS": "dash"}))
			hash := fetch().Annotations[AnnotationSyncedHash]

			for range 20 {
				secret := fetch()
				delete(secret.Annotations, AnnotationSyncedHash)
				Expect(k8sClient.Update(ctx, secret)).To(Succeed())

				reconcileOnce()
				Expect(secrets.set["DB_PASS"]).To(Equal("dash"))
				Expect(fetch().Annotations[AnnotationSyncedHash]).To(Equal(hash))
			}
		})
	})

	Describe("Scenario: Invalid or missing annotation", func() {
		It("ignores a Secret without the repository annotation", func() {
			Expect(k8sClient.Create(ctx, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{Name: resourceName, Namespace: "default"},
				Data:       map[string][]byte{"TOKEN": []byte("x")},
			})).To(Succeed())

			reconcileOnce()
			Expect(secrets.calls()).To(BeZero())
		})

		It("does not requeue an unparseable repository", func() {
			Expect(k8sClient.Create(ctx, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{
					Name:        resourceName,
					Namespace:   "default",
					Annotations: map[string]string{AnnotationRepository: "not a repo"},
				},
				Data: map[string][]byte{"TOKEN": []byte("x")},
			})).To(Succeed())

			result := reconcileOnce()
			Expect(result.RequeueAfter).To(BeZero())
			Expect(secrets.calls()).To(BeZero())
		})

		It("returns without error when the Secret is gone", func() {
			reconcileOnce()
		})
	})
})

var _ = Describe("SecretName", func() {
	DescribeTable("maps data keys to Actions secret names",
		func(key, want string, wantErr bool) {
			got, err := SecretName(key)
			if wantErr {
				Expect(err).To(MatchError(ErrInvalidSecretName))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("upper-cases", "api_key", "API_KEY", false),
		Entry("dashes become underscores", "npm-token", "NPM_TOKEN", false),
		Entry("dots become underscores", "tls.key", "TLS_KEY", false),
		Entry("leading underscore", "_private", "_PRIVATE", false),
		Entry("leading digit", "1password", "", true),
		Entry("reserved prefix", "github_token", "", true),
		Entry("reserved prefix after mapping", "github-app.key", "", true),
		Entry("invalid characters", "key/name", "", true),
		Entry("empty", "", "", true),
	)
})
