/*
   Retrix - multi-platform emulator front-end
   Copyright (c) 2022, The Retrix Authors

   This file is part of Retrix.

   Retrix is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   Retrix is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with Retrix. If not, see <http://www.gnu.org/licenses/>.
*/

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

//
const namespace = "retrix"

/*
	Metrics holds the collectors for session and file system activity. All
	methods are safe to call on a nil *Metrics, in which case they do nothing,
	so components can be used without metrics.
*/
type Metrics struct {
	GamesStarted    *prometheus.CounterVec
	LoadFailures    *prometheus.CounterVec
	RuntimeFaults   *prometheus.CounterVec
	StateOperations *prometheus.CounterVec
	StreamsOpened   prometheus.Counter
	StreamFailures  prometheus.Counter
	LoadDuration    prometheus.Histogram
	SessionState    prometheus.Gauge
	IndexSearches   prometheus.Counter
}

// New creates and registers all collectors with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GamesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "games_started_total",
			Help:      "Games successfully started, by system.",
		}, []string{"system"}),
		LoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "load_failures_total",
			Help:      "Games that could not be started, by system.",
		}, []string{"system"}),
		RuntimeFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "runtime_faults_total",
			Help:      "Sessions terminated by a core fault, by core.",
		}, []string{"core"}),
		StateOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state_operations_total",
			Help:      "Save and load state operations, by operation and result.",
		}, []string{"operation", "result"}),
		StreamsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vfs",
			Name:      "streams_opened_total",
			Help:      "Streams opened on behalf of cores.",
		}),
		StreamFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vfs",
			Name:      "stream_failures_total",
			Help:      "Stream requests from cores that could not be served.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "load_duration_seconds",
			Help:      "Time taken for starting a game.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "Current session state (0 idle, 1 loading, 2 running, 3 paused).",
		}),
		IndexSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repo",
			Name:      "searches_total",
			Help:      "Searches run against the game repository index.",
		}),
	}

	reg.MustRegister(
		m.GamesStarted,
		m.LoadFailures,
		m.RuntimeFaults,
		m.StateOperations,
		m.StreamsOpened,
		m.StreamFailures,
		m.LoadDuration,
		m.SessionState,
		m.IndexSearches,
	)

	return m
}

//
func (m *Metrics) GameStarted(system string, took time.Duration) {
	if m == nil {
		return
	}
	m.GamesStarted.WithLabelValues(system).Inc()
	m.LoadDuration.Observe(took.Seconds())
}

//
func (m *Metrics) LoadFailed(system string) {
	if m != nil {
		m.LoadFailures.WithLabelValues(system).Inc()
	}
}

//
func (m *Metrics) Fault(core string) {
	if m != nil {
		m.RuntimeFaults.WithLabelValues(core).Inc()
	}
}

//
func (m *Metrics) StateOperation(op string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.StateOperations.WithLabelValues(op, result).Inc()
}

//
func (m *Metrics) StreamOpened(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.StreamsOpened.Inc()
	} else {
		m.StreamFailures.Inc()
	}
}

//
func (m *Metrics) SetState(state int) {
	if m != nil {
		m.SessionState.Set(float64(state))
	}
}

//
func (m *Metrics) Searched() {
	if m != nil {
		m.IndexSearches.Inc()
	}
}
