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


package cleanup

import (
	"context"
	"fmt"
	"path"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/mikelane/ghactions/internal/github"
)

const pageSize = 100

// ArtifactsAPI is the subset of the Actions client the scheduler needs
type ArtifactsAPI interface {
	Artifacts(ctx context.Context, repo github.Repository, opts *github.ArtifactsOptions) (*github.ArtifactList, *github.Response, error)
	DeleteArtifact(ctx context.Context, repo github.Repository, id int64) (bool, error)
}

// Policy decides which artifacts are pruned
type Policy struct {
	// MaxAge is how long an artifact is kept after creation
	MaxAge time.Duration
	// Keep lists name patterns that are never pruned
	Keep []string
	// DryRun reports candidates without deleting them
	DryRun bool
}

// Report summarizes a pruning pass
type Report struct {
	Scanned int
	Deleted int
	Skipped int
	// Candidates lists the artifacts that were (or in dry-run would be) deleted
	Candidates []Candidate
}

// Candidate is an artifact selected for deletion
type Candidate struct {
	Repository string
	ID         int64
	Name       string
	SizeBytes  int64
	CreatedAt  time.Time
}

// Scheduler manages automatic pruning of stale artifacts.
// It runs periodically to check for artifacts that have exceeded their maximum
// age and deletes them to reclaim Actions storage.
type Scheduler struct {
	api    ArtifactsAPI
	repos  []github.Repository
	policy Policy
	now    func() time.Time
}

// NewScheduler creates a new pruning scheduler for the given repositories.
//
// Parameters:
//   - api: Actions client used for listing and deleting artifacts
//   - repos: Repositories to prune
//   - policy: Age limit, keep patterns and dry-run switch
//
// Returns a configured Scheduler ready to start, or an error when a keep
// pattern is malformed.
func NewScheduler(api ArtifactsAPI, repos []github.Repository, policy Policy) (*Scheduler, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		api:    api,
		repos:  repos,
		policy: policy,
		now:    time.Now,
	}, nil
}

// Validate reports keep patterns that path.Match cannot parse
func (p Policy) Validate() error {
	for _, pattern := range p.Keep {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid keep pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Start begins the scheduler, running a pruning pass immediately and then
// every interval until the context is canceled.
//
// Returns nil on graceful shutdown. Failed passes are logged and do not stop the scheduler.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	logger := log.FromContext(ctx)

	report, err := s.RunOnce(ctx)
	if err != nil {
		logger.Error(err, "prune pass failed")
		return
	}
	logger.Info("prune pass complete", "scanned", report.Scanned, "deleted", report.Deleted, "skipped", report.Skipped)
}

// RunOnce performs a single pruning pass over every repository.
// Repositories that fail are reported in the returned error after the
// remaining repositories have been processed.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	report := &Report{}
	var firstErr error

	for _, repo := range s.repos {
		if err := s.cleanup(ctx, repo, report); err != nil {
			log.FromContext(ctx).Error(err, "prune failed", "repository", repo.String())
			if firstErr == nil {
				firstErr = fmt.Errorf("prune %s: %w", repo, err)
			}
		}
	}

	return report, firstErr
}

// cleanup pages through a repository's artifacts and deletes the stale ones.
//
// The following rules apply:
//   - Artifacts already expired on GitHub are skipped
//   - Artifacts matching a keep pattern are skipped
//   - Only artifacts created before now - MaxAge are deleted
func (s *Scheduler) cleanup(ctx context.Context, repo github.Repository, report *Report) error {
	logger := log.FromContext(ctx).WithValues("repository", repo.String())
	cutoff := s.now().Add(-s.policy.MaxAge)

	var stale []Candidate
	opts := &github.ArtifactsOptions{ListOptions: github.ListOptions{PerPage: pageSize}}

	for {
		list, resp, err := s.api.Artifacts(ctx, repo, opts)
		if err != nil {
			return fmt.Errorf("failed to list artifacts: %w", err)
		}

		for _, artifact := range list.Artifacts {
			report.Scanned++

			if artifact.GetExpired() || s.keep(artifact.GetName()) {
				report.Skipped++
				continue
			}

			created := artifact.GetCreatedAt().Time
			if created.IsZero() || !created.Before(cutoff) {
				continue
			}

			stale = append(stale, Candidate{
				Repository: repo.String(),
				ID:         artifact.GetID(),
				Name:       artifact.GetName(),
				SizeBytes:  artifact.GetSizeInBytes(),
				CreatedAt:  created,
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	// Delete after listing so removals do not shift the pages being read
	for _, c := range stale {
		report.Candidates = append(report.Candidates, c)
		if s.policy.DryRun {
			logger.Info("would delete artifact", "id", c.ID, "name", c.Name, "created", c.CreatedAt)
			continue
		}

		ok, err := s.api.DeleteArtifact(ctx, repo, c.ID)
		if err != nil {
			return fmt.Errorf("failed to delete artifact %d: %w", c.ID, err)
		}
		if ok {
			report.Deleted++
			logger.Info("deleted artifact", "id", c.ID, "name", c.Name, "created", c.CreatedAt)
		}
	}

	return nil
}

func (s *Scheduler) keep(name string) bool {
	for _, pattern := range s.policy.Keep {
		// Patterns are checked by NewScheduler
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
