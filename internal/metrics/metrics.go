package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	OrdersCreated   prometheus.Counter
	OrdersCancelled prometheus.Counter
	StockConflicts  prometheus.Counter
}

// New builds and registers the service metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use their own
// registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mobimart",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"path", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mobimart",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"path"})

	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mobimart",
		Name:      "orders_created_total",
		Help:      "Orders successfully created.",
	})

	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mobimart",
		Name:      "orders_cancelled_total",
		Help:      "Orders cancelled with stock restored.",
	})

	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mobimart",
		Name:      "order_stock_conflicts_total",
		Help:      "Order creations rejected by insufficient stock or transaction conflict.",
	})

	reg.MustRegister(requests, latency, ordersCreated, ordersCancelled, stockConflicts)

	return &Metrics{
		Requests:        requests,
		LatencyMS:       latency,
		OrdersCreated:   ordersCreated,
		OrdersCancelled: ordersCancelled,
		StockConflicts:  stockConflicts,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.Requests.WithLabelValues(r.URL.Path, strconv.Itoa(sw.status)).Inc()
		m.LatencyMS.WithLabelValues(r.URL.Path).Observe(float64(time.Since(start).Milliseconds()))
	})
}
