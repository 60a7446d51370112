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

// Package logging builds the zap-backed logr.Logger shared by every ghactions component.
package logging

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
)

// Options selects how logs are written
type Options struct {
	// Level is one of debug, info, warn or error
	Level string
	// Development switches to human-readable console output
	Development bool
	// Output overrides the destination; stderr when nil
	Output io.Writer
}

// New creates a structured logger. Production output is JSON, development output is console text.
// Debug level enables logr V(1) messages.
func New(opts Options) (logr.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if opts.Level == "" {
		level, err = zapcore.InfoLevel, nil
	}
	if err != nil {
		return logr.Discard(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	config := zap.NewProductionConfig()
	if opts.Development {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.InitialFields = map[string]interface{}{
		"service": "ghactions",
	}

	var zl *zap.Logger
	if opts.Output != nil {
		encoder := zapcore.NewJSONEncoder(config.EncoderConfig)
		if opts.Development {
			encoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
		}
		core := zapcore.NewCore(encoder, zapcore.AddSync(opts.Output), config.Level)
		zl = zap.New(core).With(zap.String("service", "ghactions"))
	} else {
		zl, err = config.Build()
		if err != nil {
			return logr.Discard(), fmt.Errorf("failed to build logger: %w", err)
		}
	}

	return zapr.NewLogger(zl), nil
}

// Setup creates the logger and installs it as the controller-runtime logger,
// so log.FromContext falls back to it everywhere.
func Setup(opts Options) (logr.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return logger, err
	}
	ctrllog.SetLogger(logger)
	return logger, nil
}
