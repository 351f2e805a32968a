// Package metrics holds kai's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	global *Metrics
	once   sync.Once
)

type Metrics struct {
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	StoreMutationsTotal *prometheus.CounterVec

	AutomationRunsTotal *prometheus.CounterVec
	ExportFilesTotal    *prometheus.CounterVec

	BotCommandsTotal *prometheus.CounterVec
}

// New registers kai's metrics with the default registry on first use and
// returns the shared instance afterwards.
//
// Metrics:
//   - kai_http_requests_total{method,route,status}
//   - kai_http_request_duration_seconds{method,route}
//   - kai_store_mutations_total{store,op}
//   - kai_automation_runs_total{job,status}
//   - kai_export_files_total{result}
//   - kai_bot_commands_total{bot,command}
func New() *Metrics {
	once.Do(func() {
		global = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kai_http_requests_total",
					Help: "Total HTTP requests by method, route pattern and status code",
				},
				[]string{"method", "route", "status"},
			),
			HTTPDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "kai_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
				},
				[]string{"method", "route"},
			),
			StoreMutationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kai_store_mutations_total",
					Help: "Total store mutations by store and operation",
				},
				[]string{"store", "op"},
			),
			AutomationRunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kai_automation_runs_total",
					Help: "Total scheduled job runs by job and outcome",
				},
				[]string{"job", "status"},
			),
			ExportFilesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kai_export_files_total",
					Help: "Vault files handled by exports, by result (written, unchanged, removed)",
				},
				[]string{"result"},
			),
			BotCommandsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kai_bot_commands_total",
					Help: "Chat bot commands handled, by bot and command",
				},
				[]string{"bot", "command"},
			),
		}
	})
	return global
}

// RecordMutation counts a store mutation. It has the shape of the stores'
// mutation hooks once bound to a store name.
func (m *Metrics) RecordMutation(store, op string) {
	m.StoreMutationsTotal.WithLabelValues(store, op).Inc()
}

// MutationHook returns a store mutation hook labelled with store.
func (m *Metrics) MutationHook(store string) func(op string) {
	return func(op string) { m.RecordMutation(store, op) }
}

func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RecordAutomationRun(job string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.AutomationRunsTotal.WithLabelValues(job, status).Inc()
}

func (m *Metrics) RecordExport(written, unchanged, removed int) {
	m.ExportFilesTotal.WithLabelValues("written").Add(float64(written))
	m.ExportFilesTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	m.ExportFilesTotal.WithLabelValues("removed").Add(float64(removed))
}

func (m *Metrics) RecordBotCommand(bot, command string) {
	m.BotCommandsTotal.WithLabelValues(bot, command).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
