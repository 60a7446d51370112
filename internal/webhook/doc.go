// Copyright 2025 The Previewd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package webhook provides GitHub webhook handling for ghactions.
//
// This package implements an HTTP server that receives GitHub workflow_run
// webhook events and automatically re-runs workflow runs that failed.
//
// Key features:
//   - Validates GitHub webhook signatures using HMAC-SHA256
//   - Handles workflow_run events with the completed action
//   - Re-runs runs whose conclusion is in a configurable set
//   - Caps automatic re-runs by run attempt
//   - Provides per-repository rate limiting
//   - Health check and Prometheus metrics endpoints
//
// Webhook Security:
//
// All webhook requests must include a valid X-Hub-Signature-256 header containing
// an HMAC-SHA256 signature computed with the webhook secret. Requests with invalid
// or missing signatures are rejected with HTTP 401.
//
// Event Handling:
//
// A workflow_run delivery triggers a re-run when all of these hold:
//   - the action is completed
//   - the run conclusion is one of the configured conclusions (failure and timed_out by default)
//   - the run attempt is below the configured maximum
//
// A triggered re-run answers HTTP 202. Any other valid delivery answers HTTP 200.
//
// Rate Limiting:
//
// Requests are rate-limited per repository using a token bucket algorithm.
// The default limit is 10 requests per second per repository. Requests
// exceeding the limit receive HTTP 429 Too Many Requests.
//
// Example usage:
//
//	cfg := webhook.DefaultConfig()
//	cfg.Secret = "webhook-secret"
//	server, err := webhook.NewServer(cfg, client)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
