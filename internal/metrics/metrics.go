package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqlpro/sqlpro/pkg/plugin"
)

// Metrics holds all Prometheus metrics for the plugin host
type Metrics struct {
	registry *prometheus.Registry

	// Validation metrics
	ManifestValidationsTotal *prometheus.CounterVec

	// Registry metrics
	PluginsRegistered prometheus.Gauge

	// Scoped API metrics
	APICallsTotal          *prometheus.CounterVec
	PermissionDenialsTotal *prometheus.CounterVec

	// Connection metrics
	ConnectionChangesTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ManifestValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manifest_validations_total",
				Help: "Total number of manifest validations",
			},
			[]string{"result"},
		),

		PluginsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plugins_registered",
				Help: "Number of currently registered plugins",
			},
		),

		APICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugin_api_calls_total",
				Help: "Total number of scoped plugin API calls",
			},
			[]string{"method", "status"},
		),

		PermissionDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugin_permission_denials_total",
				Help: "Total number of permission denials on scoped API calls",
			},
			[]string{"permission"},
		),

		ConnectionChangesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "connection_changes_total",
				Help: "Total number of active connection changes",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.ManifestValidationsTotal)
	m.registry.MustRegister(m.PluginsRegistered)
	m.registry.MustRegister(m.APICallsTotal)
	m.registry.MustRegister(m.PermissionDenialsTotal)
	m.registry.MustRegister(m.ConnectionChangesTotal)
}

// ObserveValidation implements plugin.Instrumentation
func (m *Metrics) ObserveValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.ManifestValidationsTotal.WithLabelValues(result).Inc()
}

// SetRegisteredPlugins implements plugin.Instrumentation
func (m *Metrics) SetRegisteredPlugins(n int) {
	m.PluginsRegistered.Set(float64(n))
}

// ObserveAPICall implements plugin.Instrumentation
func (m *Metrics) ObserveAPICall(method, status string) {
	m.APICallsTotal.WithLabelValues(method, status).Inc()
}

// ObservePermissionDenial implements plugin.Instrumentation
func (m *Metrics) ObservePermissionDenial(permission plugin.Permission) {
	m.PermissionDenialsTotal.WithLabelValues(string(permission)).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
