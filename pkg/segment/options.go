/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package segment

import (
	"os"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/srediag/shmseg/internal/registry"
	"github.com/srediag/shmseg/internal/shm"
)

// Option configures a Handle at construction.
type Option func(*options)

type options struct {
	logger         Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	mode           os.FileMode
	registry       *registry.Registry
}

func defaultOptions() options {
	return options{
		logger:   nopLogger{},
		mode:     shm.DefaultMode,
		registry: registry.Default,
	}
}

// WithLogger sets the diagnostics sink. A nil logger is ignored.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithZap sends diagnostics to a zap logger.
func WithZap(l *zap.Logger) Option {
	return WithLogger(NewZapLogger(l))
}

// WithMetrics records connection and access counters into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider enables spans around Connect and Disconnect.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider enables the connect latency histogram.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithFileMode sets the permission bits of an object this handle creates.
// Ignored on Windows.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.mode = mode.Perm()
		}
	}
}

func withRegistry(r *registry.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}
