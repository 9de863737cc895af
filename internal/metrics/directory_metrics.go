package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// DirectoryMetrics records customer directory operations and HTTP traffic.
type DirectoryMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	requests   *prometheus.CounterVec
}

// NewDirectoryMetrics registers the collectors on the default registerer.
func NewDirectoryMetrics() *DirectoryMetrics {
	return NewDirectoryMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewDirectoryMetricsWithRegisterer reuses already registered collectors, so it is
// safe to call more than once per process.
func NewDirectoryMetricsWithRegisterer(registerer prometheus.Registerer) *DirectoryMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &DirectoryMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "clientsphere_directory_operations_total",
			Help: "Total number of customer directory operations by outcome",
		}, []string{"op", "outcome"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "clientsphere_directory_operation_duration_seconds",
			Help:    "Duration of customer directory operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"op"}),
		requests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "clientsphere_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// Observe implements application.Recorder.
func (m *DirectoryMetrics) Observe(op, outcome string, d time.Duration) {
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// GinMiddleware counts requests by matched route template, not raw path.
func (m *DirectoryMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
