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


package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	gogithub "github.com/google/go-github/v66/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/mikelane/ghactions/internal/github"
)

const workflowRunEvent = "workflow_run"

// Rerunner re-runs a workflow run
type Rerunner interface {
	RerunWorkflowRun(ctx context.Context, repo github.Repository, id int64) (bool, error)
}

// Config holds the webhook server settings
type Config struct {
	Addr   string
	Port   int
	Secret string
	// Conclusions that trigger a re-run
	Conclusions []string
	// MaxAttempts caps the run_attempt a run may reach through automatic re-runs
	MaxAttempts int
	// RateLimit is the sustained number of events per second accepted per repository
	RateLimit float64
	Burst     int
	// Registry receives the server metrics and backs /metrics. Nil uses the default registry.
	Registry Registry
}

// Registry both registers and gathers metrics, as *prometheus.Registry does
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// DefaultConfig returns the default webhook configuration
func DefaultConfig() Config {
	return Config{
		Addr:        "",
		Port:        8080,
		Conclusions: []string{"failure", "timed_out"},
		MaxAttempts: 3,
		RateLimit:   10,
		Burst:       10,
	}
}

// Server handles GitHub workflow_run webhook requests
type Server struct {
	config      Config
	rerunner    Rerunner
	server      *http.Server
	rateLimiter *RateLimiter
	events      *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

// RateLimiter provides per-repository rate limiting
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewServer creates a new webhook server
func NewServer(cfg Config, rerunner Rerunner) (*Server, error) {
	if cfg.Secret == "" {
		return nil, errors.New("webhook secret must not be empty")
	}
	if rerunner == nil {
		return nil, errors.New("rerunner must not be nil")
	}
	defaults := DefaultConfig()
	if len(cfg.Conclusions) == 0 {
		cfg.Conclusions = defaults.Conclusions
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaults.RateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Registry != nil {
		registerer, gatherer = cfg.Registry, cfg.Registry
	}

	return &Server{
		config:      cfg,
		rerunner:    rerunner,
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.Burst),
		events: promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
			Name: "ghactions_webhook_events_total",
			Help: "Webhook deliveries by event type and outcome.",
		}, []string{"event", "outcome"}),
		gatherer: gatherer,
	}, nil
}

// NewRateLimiter creates a new rate limiter allowing limit events per second with the given burst
func NewRateLimiter(limit float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(limit),
		burst:    burst,
	}
}

// Allow checks if a request from the given repository should be allowed
func (rl *RateLimiter) Allow(repo string) bool {
	rl.mu.Lock()
	l, exists := rl.limiters[repo]
	if !exists {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[repo] = l
	}
	rl.mu.Unlock()

	return l.Allow()
}

// Handler returns the HTTP handler serving /webhook, /healthz and /metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return otelhttp.NewHandler(mux, "webhook")
}

// Start starts the webhook server
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Addr, s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		log.FromContext(ctx).Info("Starting webhook server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.FromContext(ctx).Info("Shutting down webhook server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleWebhook handles GitHub webhook requests
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	// Only accept POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventType := gogithub.WebHookType(r)

	payload, err := gogithub.ValidatePayload(r, []byte(s.config.Secret))
	if err != nil {
		logger.Info("Invalid webhook payload", "error", err.Error())
		s.events.WithLabelValues(eventType, "unauthorized").Inc()
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	if eventType != workflowRunEvent {
		logger.V(1).Info("Ignoring event", "event", eventType)
		s.events.WithLabelValues(eventType, "ignored").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	parsed, err := gogithub.ParseWebHook(eventType, payload)
	if err != nil {
		logger.Error(err, "Failed to parse webhook payload")
		s.events.WithLabelValues(eventType, "invalid").Inc()
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	event, ok := parsed.(*gogithub.WorkflowRunEvent)
	if !ok {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// Rate limiting check
	repoName := event.GetRepo().GetFullName()
	if !s.rateLimiter.Allow(repoName) {
		logger.Info("Rate limit exceeded", "repository", repoName)
		s.events.WithLabelValues(eventType, "throttled").Inc()
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	if !s.shouldRerun(event) {
		logger.V(1).Info("Ignoring workflow run",
			"repository", repoName,
			"action", event.GetAction(),
			"conclusion", event.GetWorkflowRun().GetConclusion(),
			"attempt", event.GetWorkflowRun().GetRunAttempt())
		s.events.WithLabelValues(eventType, "ignored").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.handleFailedRun(r.Context(), event); err != nil {
		logger.Error(err, "Failed to re-run workflow run", "repository", repoName)
		s.events.WithLabelValues(eventType, "error").Inc()
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.events.WithLabelValues(eventType, "rerun").Inc()
	w.WriteHeader(http.StatusAccepted)
}

// shouldRerun reports whether a completed run failed in a way that warrants another attempt
func (s *Server) shouldRerun(event *gogithub.WorkflowRunEvent) bool {
	run := event.GetWorkflowRun()
	if event.GetAction() != "completed" || run == nil {
		return false
	}
	if !slices.Contains(s.config.Conclusions, run.GetConclusion()) {
		return false
	}
	return run.GetRunAttempt() < s.config.MaxAttempts
}

// handleFailedRun asks GitHub to re-run the workflow run carried by the event
func (s *Server) handleFailedRun(ctx context.Context, event *gogithub.WorkflowRunEvent) error {
	logger := log.FromContext(ctx)

	repo := github.RepositoryOf(event.GetRepo())
	runID := event.GetWorkflowRun().GetID()

	ok, err := s.rerunner.RerunWorkflowRun(ctx, repo, runID)
	if err != nil {
		return fmt.Errorf("failed to re-run workflow run %d: %w", runID, err)
	}
	if !ok {
		return fmt.Errorf("workflow run %d not found in %s", runID, repo)
	}

	logger.Info("Re-ran workflow run",
		"repository", repo.String(),
		"run", runID,
		"attempt", event.GetWorkflowRun().GetRunAttempt()+1)
	return nil
}
