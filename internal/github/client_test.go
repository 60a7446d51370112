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

package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestClient starts a server with handler and returns a client pointed at it
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithBaseURL(server.URL), WithRetryConfig(nil)}, opts...)
	client, err := NewClient(opts...)
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	return client
}

// TestNewClient tests the creation of a new client
func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		wantError bool
	}{
		{
			name: "Defaults create client",
		},
		{
			name: "Token creates client",
			opts: []Option{WithToken("github_pat_test123")},
		},
		{
			name: "Enterprise base URL creates client",
			opts: []Option{WithBaseURL("https://ghe.example.com/api/v3")},
		},
		{
			name:      "Malformed base URL is rejected",
			opts:      []Option{WithBaseURL("://bad")},
			wantError: true,
		},
		{
			name: "Rate limit and metrics create client",
			opts: []Option{WithRateLimit(10, 5), WithMetrics(NewMetrics(prometheus.NewRegistry()))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.opts...)
			if tt.wantError && err == nil {
				t.Errorf("NewClient() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("NewClient() unexpected error: %v", err)
			}
			if !tt.wantError && client == nil {
				t.Errorf("NewClient() returned nil client")
			}
		})
	}
}

func TestNewClient_base_url_gets_trailing_slash(t *testing.T) {
	client, err := NewClient(WithBaseURL("https://ghe.example.com/api/v3"))
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	if got := client.client.BaseURL.String(); got != "https://ghe.example.com/api/v3/" {
		t.Errorf("BaseURL = %s, want https://ghe.example.com/api/v3/", got)
	}
}

func TestClient_sends_token_and_user_agent(t *testing.T) {
	var gotAuth, gotUA string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`)) //nolint:errcheck
	}, WithToken("s3cr3t"), WithUserAgent("ghactions-test"))

	if _, err := client.Get(context.Background(), "repos/o/r/actions/runs", nil, nil); err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}

	if gotAuth != "Bearer s3cr3t" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer s3cr3t")
	}
	if gotUA != "ghactions-test" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "ghactions-test")
	}
}

func TestClient_Get_encodes_options(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		opts      any
		wantQuery string
	}{
		{
			name:      "Nil options",
			path:      "repos/o/r/actions/runs",
			opts:      nil,
			wantQuery: "",
		},
		{
			name:      "Nil struct pointer",
			path:      "repos/o/r/actions/runs",
			opts:      (*ListOptions)(nil),
			wantQuery: "",
		},
		{
			name:      "Struct options",
			path:      "repos/o/r/actions/runs",
			opts:      &WorkflowRunsOptions{Branch: "main", ListOptions: ListOptions{Page: 2}},
			wantQuery: "branch=main&page=2",
		},
		{
			name:      "url.Values",
			path:      "repos/o/r/actions/runs",
			opts:      url.Values{"status": {"failure"}},
			wantQuery: "status=failure",
		},
		{
			name:      "String map",
			path:      "repos/o/r/actions/runs",
			opts:      map[string]string{"event": "push"},
			wantQuery: "event=push",
		},
		{
			name:      "Merges with existing query",
			path:      "repos/o/r/actions/runs?actor=octocat",
			opts:      &ListOptions{PerPage: 10},
			wantQuery: "actor=octocat&per_page=10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				w.Write([]byte(`{}`)) //nolint:errcheck
			})

			if _, err := client.Get(context.Background(), tt.path, tt.opts, nil); err != nil {
				t.Fatalf("Get() unexpected error: %v", err)
			}
			if gotQuery != tt.wantQuery {
				t.Errorf("query = %q, want %q", gotQuery, tt.wantQuery)
			}
		})
	}
}

func TestClient_Put_encodes_body(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	resp, err := client.Put(context.Background(), "repos/o/r/actions/secrets/X", map[string]string{"key_id": "1"}, nil)
	if err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if got["key_id"] != "1" {
		t.Errorf("body key_id = %q, want 1", got["key_id"])
	}
}

func TestClient_Get_returns_error_response(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`)) //nolint:errcheck
	})

	resp, err := client.Get(context.Background(), "repos/o/r/actions/runs/1", nil, nil)
	if err == nil {
		t.Fatal("Get() expected error, got nil")
	}
	if !isNotFound(err) {
		t.Errorf("Get() error = %v, want a 404 ErrorResponse", err)
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("Get() response should carry the 404 status")
	}
}

func TestClient_BooleanFromResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       bool
		wantError  bool
	}{
		{name: "No content is true", statusCode: http.StatusNoContent, want: true},
		{name: "Created is true", statusCode: http.StatusCreated, want: true},
		{name: "Accepted is true", statusCode: http.StatusAccepted, want: true},
		{name: "OK is true", statusCode: http.StatusOK, want: true},
		{name: "Reset content is true", statusCode: http.StatusResetContent, want: true},
		{name: "Not found is false", statusCode: http.StatusNotFound, want: false},
		{name: "Conflict is an error", statusCode: http.StatusConflict, wantError: true},
		{name: "Server error is an error", statusCode: http.StatusInternalServerError, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.statusCode >= 400 {
					w.Write([]byte(`{"message":"nope"}`)) //nolint:errcheck
				}
			})

			got, err := client.BooleanFromResponse(context.Background(), http.MethodDelete, "repos/o/r/actions/artifacts/1", nil)
			if tt.wantError && err == nil {
				t.Errorf("BooleanFromResponse() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("BooleanFromResponse() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BooleanFromResponse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_BooleanFromResponse_accepted_is_not_retried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{}`)) //nolint:errcheck
	}, WithRetryConfig(&RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}))

	ok, err := client.CancelWorkflowRun(context.Background(), testRepo, 1)
	if err != nil {
		t.Fatalf("CancelWorkflowRun() unexpected error: %v", err)
	}
	if !ok {
		t.Errorf("CancelWorkflowRun() = false, want true")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestClient_Redirect(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		location   string
		wantURL    string
		wantErr    error
		wantError  bool
	}{
		{
			name:       "Returns location of a found redirect",
			statusCode: http.StatusFound,
			location:   "https://pipelines.actions.githubusercontent.com/logs.zip?sig=abc",
			wantURL:    "https://pipelines.actions.githubusercontent.com/logs.zip?sig=abc",
		},
		{
			name:       "OK without redirect is an error",
			statusCode: http.StatusOK,
			wantErr:    ErrNoRedirect,
			wantError:  true,
		},
		{
			name:       "Redirect without location is an error",
			statusCode: http.StatusFound,
			wantErr:    ErrNoRedirect,
			wantError:  true,
		},
		{
			name:       "Gone is an API error",
			statusCode: http.StatusGone,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.location != "" {
					w.Header().Set("Location", tt.location)
				}
				w.WriteHeader(tt.statusCode)
				if tt.statusCode >= 400 {
					w.Write([]byte(`{"message":"Gone"}`)) //nolint:errcheck
				}
			})

			u, err := client.Redirect(context.Background(), "repos/o/r/actions/runs/1/logs")
			if tt.wantError {
				if err == nil {
					t.Fatal("Redirect() expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("Redirect() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Redirect() unexpected error: %v", err)
			}
			if u.String() != tt.wantURL {
				t.Errorf("Redirect() = %s, want %s", u, tt.wantURL)
			}
		})
	}
}

func TestClient_Download_streams_without_token(t *testing.T) {
	blob := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("download sent Authorization %q to a signed URL", auth)
		}
		w.Write([]byte("PK\x03\x04zip-bytes")) //nolint:errcheck
	}))
	defer blob.Close()

	client, err := NewClient(WithToken("s3cr3t"))
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}

	u, _ := url.Parse(blob.URL + "/artifact.zip")
	var sb strings.Builder
	if err := client.Download(context.Background(), u, &sb); err != nil {
		t.Fatalf("Download() unexpected error: %v", err)
	}
	if sb.String() != "PK\x03\x04zip-bytes" {
		t.Errorf("Download() wrote %q", sb.String())
	}
}

func TestClient_records_metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	}, WithMetrics(metrics))

	ctx := context.Background()
	client.Get(ctx, "repos/o/r/actions/runs", nil, nil)         //nolint:errcheck
	client.Get(ctx, "repos/o/r/actions/runs", nil, nil)         //nolint:errcheck
	client.Get(ctx, "repos/o/r/actions/runs/missing", nil, nil) //nolint:errcheck

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, "200")); got != 2 {
		t.Errorf("requests{GET,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, "404")); got != 1 {
		t.Errorf("requests{GET,404} = %v, want 1", got)
	}
}

func TestClient_rate_limit_spaces_requests(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	}, WithRateLimit(20, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "repos/o/r/actions/runs", nil, nil); err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
	}

	// 20 rps with burst 1: the 2nd and 3rd requests each wait ~50ms
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 requests took %v, expected throttling to at least 80ms", elapsed)
	}
}
