package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the server
type Metrics struct {
	registry      *prometheus.Registry
	todosTotal    prometheus.Gauge
	todosDone     prometheus.Gauge
	serverFnCalls *prometheus.CounterVec
	assetBytes    prometheus.Counter
	assetNotMod   prometheus.Counter
}

// NewMetrics creates metrics on a private registry so several servers can
// coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		todosTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "todo_items_total",
			Help: "Total number of todos stored",
		}),
		todosDone: factory.NewGauge(prometheus.GaugeOpts{
			Name: "todo_items_done",
			Help: "Number of todos marked done",
		}),
		serverFnCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_server_fn_calls_total",
			Help: "Server function calls by name and outcome",
		}, []string{"fn", "outcome"}),
		assetBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "todo_asset_bytes_total",
			Help: "Bytes of site assets served",
		}),
		assetNotMod: factory.NewCounter(prometheus.CounterOpts{
			Name: "todo_asset_not_modified_total",
			Help: "Asset requests answered with 304 Not Modified",
		}),
	}
}

// ObserveReloadClients exports the number of connected live reload pages.
func (m *Metrics) ObserveReloadClients(clients func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "todo_reload_clients",
		Help: "Pages connected to the live reload channel",
	}, func() float64 { return float64(clients()) })
}

func (m *Metrics) setCounts(total, done int) {
	m.todosTotal.Set(float64(total))
	m.todosDone.Set(float64(done))
}
