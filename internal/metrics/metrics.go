package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPCollector exposes Prometheus metrics for inbound HTTP requests and
// forecast activity.
type HTTPCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	fitTotal        *prometheus.CounterVec
	predictDuration prometheus.Histogram
}

// NewHTTPCollector constructs a collector with default histograms/counters.
func NewHTTPCollector() (*HTTPCollector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prophetd",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prophetd",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	fitTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prophetd",
		Subsystem: "forecast",
		Name:      "fits_total",
		Help:      "Total number of model fit attempts by outcome.",
	}, []string{"outcome"})

	predictDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prophetd",
		Subsystem: "forecast",
		Name:      "predict_duration_seconds",
		Help:      "Latency distribution for prediction calls.",
		Buckets:   prometheus.DefBuckets,
	})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, fitTotal, predictDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	collector := &HTTPCollector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		fitTotal:        fitTotal,
		predictDuration: predictDuration,
	}

	return collector, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *HTTPCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveFit records the outcome of a model fit attempt.
func (c *HTTPCollector) ObserveFit(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.fitTotal.WithLabelValues(outcome).Inc()
}

// ObservePredict records the duration of a prediction call.
func (c *HTTPCollector) ObservePredict(d time.Duration) {
	c.predictDuration.Observe(d.Seconds())
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
