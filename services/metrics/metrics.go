package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ldserver_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ldserver_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"route"})

	engineCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ldserver_engine_calls_total",
		Help: "Engine calls by operation and outcome",
	}, []string{"operation", "outcome"})

	engineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ldserver_engine_call_duration_seconds",
		Help:    "Engine call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"operation"})

	pagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ldserver_pages_total",
		Help: "Result pages served, by whether more pages follow",
	}, []string{"operation", "terminal"})

	cacheAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ldserver_segment_cache_available",
		Help: "1 while the segment cache answers probes",
	})
)

// Middleware records request counts and latency per route template.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		route := c.Path()
		httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// ObserveEngine records one engine call.
func ObserveEngine(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	engineCalls.WithLabelValues(operation, outcome).Inc()
	engineDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func ObservePage(operation string, terminal bool) {
	pagesServed.WithLabelValues(operation, strconv.FormatBool(terminal)).Inc()
}

func SetCacheAvailable(up bool) {
	if up {
		cacheAvailable.Set(1)
	} else {
		cacheAvailable.Set(0)
	}
}
