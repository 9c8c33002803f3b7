package metrics

import (
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счетчики HTTP-запросов и операций с таблицами
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	tableCalls *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workoutsync",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workoutsync",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		tableCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workoutsync",
			Name:      "table_operations_total",
			Help:      "Table operations by table, operation and outcome.",
		}, []string{"table", "op", "outcome"}),
	}
	reg.MustRegister(m.requests, m.duration, m.tableCalls)
	return m
}

// Middleware учитывает каждый запрос к операции huma
func (m *Metrics) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)

		op := "unknown"
		if o := ctx.Operation(); o != nil {
			op = o.OperationID
		}
		m.requests.WithLabelValues(op, strconv.Itoa(ctx.Status())).Inc()
		m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// TableOp фиксирует исход операции с таблицей: ok, error, referenced
func (m *Metrics) TableOp(table, op, outcome string) {
	m.tableCalls.WithLabelValues(table, op, outcome).Inc()
}
