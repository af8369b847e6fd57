// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to various parts of the pipeline.
//
// When defining new operations or metrics, these are helpful values to track:
//  - things coming into or go out of the system: requests, files, tests, api calls.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ServerCounters tracks the server engine's monotonic counter taxonomy:
	// send, recv, deserialization, cell, opcode, pid, internal, and
	// good-transaction (§4.4a).
	//
	// Example usage:
	//   metrics.ServerCounters.With(prometheus.Labels{"counter": "pid"}).Inc()
	ServerCounters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paramtree_server_counter_total",
			Help: "Server engine counter taxonomy (send/recv/deserialization/cell/opcode/pid/internal/good_transaction).",
		}, []string{"counter"})

	// ClientCounters tracks the client engine's counter taxonomy: the send,
	// recv, deserialization, internal and good-transaction counters it shares
	// with the server, plus timeout and the transaction, opcode, pid, eid,
	// offset and type mismatch counters (§4.4b).
	ClientCounters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paramtree_client_counter_total",
			Help: "Client engine counter taxonomy (including timeout/eid/offset mismatches).",
		}, []string{"counter"})

	// DispatchLatency tracks how long the server spends processing one
	// inbound message, end to end.
	DispatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paramtree_dispatch_latency_seconds",
			Help:    "Server message-dispatch latency distribution.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 16),
		},
	)

	// RequestLatency tracks client round-trip latency per call.
	RequestLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paramtree_request_latency_seconds",
			Help:    "Client request round-trip latency distribution.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	// QueueDepth tracks the QueuedServer's pending-work backlog.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paramtree_server_queue_depth",
			Help: "Number of messages waiting in the QueuedServer's work queue.",
		},
	)
)

// init() prints a log message to let the user know that the package has been
// loaded and the metrics registered. The metrics are auto-registered, which
// means they are registered as soon as this package is loaded, and the exact
// time this occurs (and whether this occurs at all in a given context) can be
// opaque.
func init() {
	log.Println("Prometheus metrics in paramtree.metrics are registered.")
}
