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


// Package cleanup provides retention-based pruning of GitHub Actions artifacts.
//
// This package implements a scheduler that periodically lists the artifacts of
// one or more repositories and deletes those older than a maximum age, keeping
// storage usage under control without waiting for GitHub's own retention period.
//
// Key features:
//   - Periodic pruning based on configurable interval, or a single pass
//   - Maximum age measured from the artifact's creation time
//   - Keep patterns that exempt artifacts by name (path.Match syntax)
//   - Dry-run mode that reports without deleting
//   - Graceful shutdown via context cancellation
//
// Pruning Rules:
//
//   - Artifacts GitHub already marks as expired are skipped
//   - Artifacts whose name matches a keep pattern are skipped
//   - Artifacts created before now - maxAge are deleted
//
// Example usage:
//
//	scheduler, err := cleanup.NewScheduler(client, []github.Repository{repo}, cleanup.Policy{
//		MaxAge: 7 * 24 * time.Hour,
//		Keep:   []string{"release-*"},
//	})
//	if err != nil {
//	    return err
//	}
//	report, err := scheduler.RunOnce(ctx)
//
//	// or prune now and then every hour until ctx is canceled
//	err = scheduler.Start(ctx, time.Hour)
package cleanup
