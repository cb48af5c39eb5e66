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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultConnected = "connected"
	resultNoop      = "noop"
	resultCreation  = "creation_failure"
	resultSizing    = "sizing_failure"
	resultMapping   = "mapping_failure"
)

// Metrics holds the Prometheus collectors shared by every handle configured
// with it. A nil *Metrics records nothing.
type Metrics struct {
	connects        *prometheus.CounterVec
	disconnects     *prometheus.CounterVec
	releaseFailures *prometheus.CounterVec
	writes          *prometheus.CounterVec
	snapshots       *prometheus.CounterVec
	connected       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil. It panics if they are already registered there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	label := []string{"segment"}
	m := &Metrics{
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "connect_total",
			Help:      "Connect calls by segment and result.",
		}, []string{"segment", "result"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "disconnect_total",
			Help:      "Connected-to-disconnected transitions.",
		}, label),
		releaseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "release_failures_total",
			Help:      "Disconnects whose unmap or close reported an error.",
		}, label),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "writes_total",
			Help:      "Guarded whole-value writes and updates.",
		}, label),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "snapshots_total",
			Help:      "Guarded whole-value snapshots.",
		}, label),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "shmseg",
			Name:      "connected_handles",
			Help:      "Handles currently connected.",
		}, label),
	}
	if reg != nil {
		reg.MustRegister(m.connects, m.disconnects, m.releaseFailures, m.writes, m.snapshots, m.connected)
	}
	return m
}

func (m *Metrics) connect(name, result string) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(name, result).Inc()
	if result == resultConnected {
		m.connected.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) disconnect(name string, releaseFailed bool) {
	if m == nil {
		return
	}
	m.disconnects.WithLabelValues(name).Inc()
	m.connected.WithLabelValues(name).Dec()
	if releaseFailed {
		m.releaseFailures.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) write(name string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(name).Inc()
}

func (m *Metrics) snapshot(name string) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(name).Inc()
}

func connectResult(kind error) string {
	switch kind {
	case ErrSizing:
		return resultSizing
	case ErrMapping:
		return resultMapping
	}
	return resultCreation
}
