// Copyright (C) 2025 adrianbrink
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package metrics exposes the routing engine's Prometheus instruments:
// message forwarding, filter drops, admission decisions, churn events,
// state transitions, and relocation latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "routing"

// Registry is the collector registry every instrument below is bound
// to, so Handler serves exactly this package's metrics and nothing
// pulled in transitively by other imports.
var Registry = prometheus.NewRegistry()

var (
	// MessagesForwarded counts RoutingMessages the engine has
	// forwarded, labeled by forwarding mode (transit, swarm).
	MessagesForwarded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "forwarded_total",
			Help:      "Total number of routing messages forwarded",
		},
		[]string{"mode"},
	)

	// FilterDrops counts messages dropped by a routing check, labeled by
	// the filter or check that dropped them; the engine records
	// "direction" for direction-check drops.
	FilterDrops = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "drops_total",
			Help:      "Total number of messages dropped by a replay filter",
		},
		[]string{"filter"},
	)

	// AdmissionDecisions counts ClientIdentify admission outcomes,
	// labeled by decision (accept, deny).
	AdmissionDecisions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "decisions_total",
			Help:      "Total number of node admission decisions",
		},
		[]string{"decision"},
	)

	// ChurnEvents counts churn notifications raised by the routing
	// engine, labeled by kind (gained, lost).
	ChurnEvents = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "churn",
			Name:      "events_total",
			Help:      "Total number of churn events raised",
		},
		[]string{"kind"},
	)

	// StateTransitions counts node state machine transitions, labeled
	// by from/to state pair.
	StateTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "transitions_total",
			Help:      "Total number of node state machine transitions",
		},
		[]string{"from", "to"},
	)

	// RelocationDuration tracks how long the one-shot name relocation
	// handshake takes end to end.
	RelocationDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relocation",
			Name:      "duration_seconds",
			Help:      "Duration of the relocation handshake in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)

// Handler returns an HTTP handler serving this package's registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// StartServer serves Handler at /metrics on addr. It takes no context
// and returns only when http.ListenAndServe fails.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
