package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// upstream backend
	GatewayDuration *prometheus.HistogramVec
	GatewayErrors   *prometheus.CounterVec

	// payment flow
	PaymentOutcomes *prometheus.CounterVec

	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// reconcile worker
	ReconcileResults *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "regportal",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "regportal",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "regportal",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		GatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "regportal",
				Subsystem: "gateway",
				Name:      "call_duration_seconds",
				Help:      "Backend API call latency by logical endpoint and outcome.",
				Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint", "outcome"}, // outcome=ok|api_error|network
		),
		GatewayErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "regportal",
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Backend API errors by logical endpoint and class.",
			},
			[]string{"endpoint", "class"},
		),
		PaymentOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "regportal",
				Subsystem: "payments",
				Name:      "outcomes_total",
				Help:      "Payment flow outcomes as routed to the attendee.",
			},
			[]string{"kind"}, // kind=success|failed|error|dismissed|invalid_amount
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "regportal",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "regportal",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		ReconcileResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "regportal",
				Subsystem: "reconcile",
				Name:      "results_total",
				Help:      "Reconciliation check outcomes.",
			},
			[]string{"result"}, // result=paid|retry|needs_support|error
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.GatewayDuration, p.GatewayErrors, p.PaymentOutcomes,
		p.DbQueryDuration, p.DbErrorsTotal, p.ReconcileResults,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// ObserveGateway times one backend call. classify maps the returned error to a class label.
func (p *Prom) ObserveGateway(endpoint string, classify func(error) string, fn func() error) error {
	start := time.Now()
	err := fn()

	outcome := "ok"
	if err != nil {
		outcome = classify(err)
		p.GatewayErrors.WithLabelValues(endpoint, outcome).Inc()
	}
	p.GatewayDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	return err
}

func (p *Prom) IncPaymentOutcome(kind string) {
	p.PaymentOutcomes.WithLabelValues(kind).Inc()
}
