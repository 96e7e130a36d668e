// +build prometheus

// Package instrument exposes optional Prometheus counters and gauges for
// the transport and client layers. Compiled only with -tags prometheus; the
// protocol logic never depends on it.
package instrument

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	blocksSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smpclient_blocks_sent_total",
			Help: "Number of encrypted transport blocks written to brokers",
		},
	)
	blocksReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smpclient_blocks_received_total",
			Help: "Number of encrypted transport blocks read from brokers",
		},
	)
	blockAuthFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smpclient_block_auth_failures_total",
			Help: "Number of transport blocks that failed GCM authentication",
		},
	)
	pendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smpclient_pending_requests",
			Help: "Number of SMP commands sent and awaiting a broker response",
		},
	)
	droppedUnsolicited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smpclient_dropped_unsolicited_total",
			Help: "Number of unsolicited broker transmissions dropped instead of queued",
		},
		[]string{"reason"},
	)
	commandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smpclient_commands_sent_total",
			Help: "Number of client commands sent, by tag",
		},
		[]string{"tag"},
	)
	brokerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smpclient_broker_errors_total",
			Help: "Number of ERR responses received from brokers, by error tag",
		},
		[]string{"tag"},
	)
	handshakeDuration = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name: "smpclient_handshake_duration_seconds",
			Help: "Time to complete the transport handshake",
		},
	)
)

// Init registers the collectors and serves /metrics on addr.
func Init(addr string) {
	prometheus.MustRegister(blocksSent)
	prometheus.MustRegister(blocksReceived)
	prometheus.MustRegister(blockAuthFailures)
	prometheus.MustRegister(pendingRequests)
	prometheus.MustRegister(droppedUnsolicited)
	prometheus.MustRegister(commandsSent)
	prometheus.MustRegister(brokerErrors)
	prometheus.MustRegister(handshakeDuration)

	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, nil)
}

// BlockSent records one transport block written.
func BlockSent() { blocksSent.Inc() }

// BlockReceived records one transport block read.
func BlockReceived() { blocksReceived.Inc() }

// BlockAuthFailure records one block that failed GCM authentication.
func BlockAuthFailure() { blockAuthFailures.Inc() }

// SetPendingRequests reports the current size of the in-flight correlation
// table.
func SetPendingRequests(n int) { pendingRequests.Set(float64(n)) }

// DroppedUnsolicited records a broker transmission dropped instead of
// queued, tagged with why (e.g. "full_or_closed_queue", "no_recipient").
func DroppedUnsolicited(reason string) { droppedUnsolicited.WithLabelValues(reason).Inc() }

// CommandSent records one client command transmitted, by its wire tag.
func CommandSent(tag string) { commandsSent.WithLabelValues(tag).Inc() }

// BrokerError records one ERR response received, by its error tag.
func BrokerError(tag string) { brokerErrors.WithLabelValues(tag).Inc() }

// ObserveHandshakeDuration records the time a completed handshake took.
func ObserveHandshakeDuration(seconds float64) { handshakeDuration.Observe(seconds) }
