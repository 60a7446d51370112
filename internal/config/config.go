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

// Package config loads ghactions settings from defaults, an optional YAML file,
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mikelane/ghactions/internal/cleanup"
	"github.com/mikelane/ghactions/internal/github"
)

// EnvPrefix is prepended to every environment variable, so retry.max_retries is read from GHACTIONS_RETRY_MAX_RETRIES
const EnvPrefix = "GHACTIONS"

// Config represents the application configuration
type Config struct {
	Token     string          `mapstructure:"token" json:"-"`
	BaseURL   string          `mapstructure:"base_url" json:"base_url"`
	Output    string          `mapstructure:"output" json:"output"`
	Retry     RetryConfig     `mapstructure:"retry" json:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" json:"rate_limit"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
	Webhook   WebhookConfig   `mapstructure:"webhook" json:"webhook"`
	Prune     PruneConfig     `mapstructure:"prune" json:"prune"`
	Metrics   MetricsConfig   `mapstructure:"metrics" json:"metrics"`
}

// RetryConfig controls API retries
type RetryConfig struct {
	MaxRetries     int           `mapstructure:"max_retries" json:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" json:"max_backoff"`
}

// RateLimitConfig throttles outgoing API calls. RPS 0 disables throttling.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" json:"rps"`
	Burst int     `mapstructure:"burst" json:"burst"`
}

// LogConfig selects log level and encoding
type LogConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Development bool   `mapstructure:"development" json:"development"`
}

// WebhookConfig configures the auto re-run webhook server
type WebhookConfig struct {
	Addr        string   `mapstructure:"addr" json:"addr"`
	Port        int      `mapstructure:"port" json:"port"`
	Secret      string   `mapstructure:"secret" json:"-"`
	MaxAttempts int      `mapstructure:"max_attempts" json:"max_attempts"`
	Conclusions []string `mapstructure:"conclusions" json:"conclusions"`
}

// PruneConfig configures artifact retention
type PruneConfig struct {
	MaxAge   time.Duration `mapstructure:"max_age" json:"max_age"`
	Interval time.Duration `mapstructure:"interval" json:"interval"`
	Keep     []string      `mapstructure:"keep" json:"keep"`
}

// MetricsConfig configures the operator metrics endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// New returns a viper instance carrying the defaults and environment bindings.
// Flags are bound to it by the caller before Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// GITHUB_TOKEN is honoured as a fallback so the CLI works inside Actions
	_ = v.BindEnv("token", EnvPrefix+"_TOKEN", "GITHUB_TOKEN")

	return v
}

func setDefaults(v *viper.Viper) {
	retry := github.DefaultRetryConfig()

	v.SetDefault("token", "")
	v.SetDefault("base_url", "")
	v.SetDefault("output", "table")
	v.SetDefault("retry.max_retries", retry.MaxRetries)
	v.SetDefault("retry.initial_backoff", retry.InitialBackoff)
	v.SetDefault("retry.max_backoff", retry.MaxBackoff)
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("webhook.addr", "")
	v.SetDefault("webhook.port", 8080)
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.max_attempts", 3)
	v.SetDefault("webhook.conclusions", []string{"failure", "timed_out"})
	v.SetDefault("prune.max_age", 7*24*time.Hour)
	v.SetDefault("prune.interval", time.Hour)
	v.SetDefault("prune.keep", []string{})
	v.SetDefault("metrics.addr", ":8081")
}

// BindFlags binds flags to config keys. keys maps a config key to the name of
// the flag overriding it; keys whose flag is absent from the set are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/ghactions/config.yaml, or the platform equivalent
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ghactions", "config.yaml")
}

// Load reads the configuration file (if any), decodes all sources and validates the result.
// An explicitly given path must exist; the default path is optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if def := DefaultPath(); def != "" {
		if _, err := os.Stat(def); err == nil {
			v.SetConfigFile(def)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", def, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate rejects settings that cannot work
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL))
		}
	}

	switch c.Output {
	case "json", "yaml", "table":
	default:
		errs = append(errs, fmt.Errorf("output must be json, yaml or table, got %q", c.Output))
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("retry.max_retries must not be negative"))
	}
	if c.Retry.MaxRetries > 0 {
		if c.Retry.InitialBackoff <= 0 {
			errs = append(errs, errors.New("retry.initial_backoff must be positive"))
		}
		if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
			errs = append(errs, errors.New("retry.max_backoff must not be less than retry.initial_backoff"))
		}
	}

	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.burst must be at least 1"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	if c.Webhook.Port < 0 || c.Webhook.Port > 65535 {
		errs = append(errs, fmt.Errorf("webhook.port %d is out of range", c.Webhook.Port))
	}
	if c.Webhook.MaxAttempts < 1 {
		errs = append(errs, errors.New("webhook.max_attempts must be at least 1"))
	}

	if c.Prune.MaxAge <= 0 {
		errs = append(errs, errors.New("prune.max_age must be positive"))
	}
	if c.Prune.Interval <= 0 {
		errs = append(errs, errors.New("prune.interval must be positive"))
	}
	if err := (cleanup.Policy{Keep: c.Prune.Keep}).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("prune.keep: %w", err))
	}

	return errors.Join(errs...)
}

// ClientOptions translates the configuration into GitHub client options
func (c *Config) ClientOptions() []github.Option {
	var opts []github.Option
	if c.Token != "" {
		opts = append(opts, github.WithToken(c.Token))
	}
	if c.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(c.BaseURL))
	}
	if c.Retry.MaxRetries == 0 {
		opts = append(opts, github.WithRetryConfig(nil))
	} else {
		retry := github.DefaultRetryConfig()
		retry.MaxRetries = c.Retry.MaxRetries
		retry.InitialBackoff = c.Retry.InitialBackoff
		retry.MaxBackoff = c.Retry.MaxBackoff
		opts = append(opts, github.WithRetryConfig(retry))
	}
	if c.RateLimit.RPS > 0 {
		opts = append(opts, github.WithRateLimit(c.RateLimit.RPS, c.RateLimit.Burst))
	}
	return opts
}
