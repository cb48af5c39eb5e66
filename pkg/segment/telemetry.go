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
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/srediag/shmseg/pkg/segment"

type telemetry struct {
	tracer          trace.Tracer
	connectDuration metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) telemetry {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	hist, err := mp.Meter(instrumentationName).Float64Histogram(
		"shmseg.connect.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time spent opening, sizing and mapping a segment."),
	)
	if err != nil {
		hist = metricnoop.Float64Histogram{}
	}
	return telemetry{
		tracer:          tp.Tracer(instrumentationName),
		connectDuration: hist,
	}
}

func (t telemetry) start(ctx context.Context, op, name string, size int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "shmseg."+op, trace.WithAttributes(
		attribute.String("shm.name", name),
		attribute.Int("shm.size", size),
	))
}

func (t telemetry) recordConnect(ctx context.Context, name string, d time.Duration, err error) {
	t.connectDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("shm.name", name),
		attribute.Bool("shm.ok", err == nil),
	))
}
