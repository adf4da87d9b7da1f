package pitwall

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "pitwall"

var (
	providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "provider_requests_total",
		Help:      "Requests made to the data provider, by endpoint, source (network or cache) and result.",
	}, []string{"endpoint", "source", "result"})

	sessionLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "session_loads_total",
		Help:      "Session and telemetry loads, by kind and memoization result (hit, miss, error, cancelled).",
	}, []string{"kind", "result"})

	sessionLoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "session_load_duration_seconds",
		Help:      "Time taken to load a session from the data provider.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"session"})

	chartRenders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "chart_renders_total",
		Help:      "Chart renders, by chart and result.",
	}, []string{"chart", "result"})
)

// RegisterMetrics adds all pitwall collectors to the registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{providerRequests, sessionLoads, sessionLoadDuration, chartRenders} {
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// ObserveProviderRequest is an openf1.RequestHook which records provider requests.
func ObserveProviderRequest(endpoint string, cached bool, err error) {
	source := "network"

	if cached {
		source = "cache"
	}

	providerRequests.WithLabelValues(endpoint, source, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
