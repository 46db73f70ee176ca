// Package metrics exposes the engine's counters via Prometheus,
// grounded on nabbar-golib's monitor package use of
// github.com/prometheus/client_golang.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge names: mav_error,
// per-link master_in/master_out, bad-data count, and journal queue
// depth. The two journal queue-depth gauges are registered, but
// nothing in this module sets them, so they always read 0.
type Metrics struct {
	MavError       prometheus.Counter
	BadData        prometheus.Counter
	MasterIn       *prometheus.CounterVec
	MasterOut      *prometheus.CounterVec
	JournalRawDepth    prometheus.Gauge
	JournalParsedDepth prometheus.Gauge
}

// New registers every metric against a dedicated registry (not the
// global default, so tests can construct independent instances).
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		MavError: factory.NewCounter(prometheus.CounterOpts{
			Name: "gcproxy_mav_error_total",
			Help: "Count of undecodable (bad-data) frames seen across all links.",
		}),
		BadData: factory.NewCounter(prometheus.CounterOpts{
			Name: "gcproxy_bad_data_total",
			Help: "Count of BAD_DATA messages produced by the codec.",
		}),
		MasterIn: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gcproxy_master_in_total",
			Help: "Inbound message count per link.",
		}, []string{"link"}),
		MasterOut: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gcproxy_master_out_total",
			Help: "Outbound message count per link.",
		}, []string{"link"}),
		JournalRawDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gcproxy_journal_raw_queue_depth",
			Help: "Pending items in the raw log queue.",
		}),
		JournalParsedDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gcproxy_journal_parsed_queue_depth",
			Help: "Pending items in the parsed log queue.",
		}),
	}, reg
}

// Handler returns the /metrics HTTP handler for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
