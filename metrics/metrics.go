package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
)

const namespace = "mailroom"

// Metrics holds the Prometheus collectors of the service.
// Every recording method is a no-op on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	Subscriptions  *prometheus.CounterVec // by result
	Unsubscribes   *prometheus.CounterVec // by result
	ContactSubmits *prometheus.CounterVec // by result
	Notifications  *prometheus.CounterVec // by kind, result

	DispatchBatches    *prometheus.CounterVec // by result
	DispatchRecipients prometheus.Counter
	DispatchDuration   prometheus.Histogram

	CronRuns *prometheus.CounterVec // by result
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests total",
			},
			[]string{"method", "route", "status_class"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Subscriptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriptions_total",
				Help:      "Subscribe requests by outcome",
			},
			[]string{"result"},
		),
		Unsubscribes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unsubscribes_total",
				Help:      "Unsubscribe requests by outcome",
			},
			[]string{"result"},
		),
		ContactSubmits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contact_messages_total",
				Help:      "Contact form submissions by outcome",
			},
			[]string{"result"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Transactional emails by kind and outcome",
			},
			[]string{"kind", "result"},
		),
		DispatchBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_batches_total",
				Help:      "Newsletter batches handed to the transport",
			},
			[]string{"result"},
		),
		DispatchRecipients: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_recipients_total",
				Help:      "Recipients of accepted newsletter batches",
			},
		),
		DispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration of newsletter sends",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		CronRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cron_runs_total",
				Help:      "Scheduled newsletter runs",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.Subscriptions,
		m.Unsubscribes,
		m.ContactSubmits,
		m.Notifications,
		m.DispatchBatches,
		m.DispatchRecipients,
		m.DispatchDuration,
		m.CronRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the collectors are registered to.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records RED metrics labeled with the matched mux route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tmpl, err := cr.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, fmt.Sprintf("%dxx", status/100)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
	})(next)
}

func (m *Metrics) RecordSubscribe(result string) {
	if m == nil {
		return
	}
	m.Subscriptions.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordUnsubscribe(err error) {
	if m == nil {
		return
	}
	m.Unsubscribes.WithLabelValues(resultOf(err)).Inc()
}

func (m *Metrics) RecordContact(err error) {
	if m == nil {
		return
	}
	m.ContactSubmits.WithLabelValues(resultOf(err)).Inc()
}

// RecordNotification counts a best-effort transactional email of the given kind.
func (m *Metrics) RecordNotification(kind string, err error) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, resultOf(err)).Inc()
}

// RecordBatch counts one transport call of a bulk send of size recipients.
func (m *Metrics) RecordBatch(size int, err error) {
	if m == nil {
		return
	}
	m.DispatchBatches.WithLabelValues(resultOf(err)).Inc()
	if err == nil {
		m.DispatchRecipients.Add(float64(size))
	}
}

func (m *Metrics) ObserveDispatch(start time.Time) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordCronRun(err error) {
	if m == nil {
		return
	}
	m.CronRuns.WithLabelValues(resultOf(err)).Inc()
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
