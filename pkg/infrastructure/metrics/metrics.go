package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/application/services/mrp"
)

// Metrics holds all planner metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Planning metrics
	ExplosionDuration   *prometheus.HistogramVec
	PlansTotal          *prometheus.CounterVec
	WorkOrdersCreated   *prometheus.CounterVec
	RequisitionsRaised  prometheus.Counter
	MissingRecipesTotal prometheus.Counter
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "mrp",
	}
}

var _ mrp.PlanObserver = (*Metrics)(nil)

// New creates a new Metrics instance on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.ExplosionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "explosion_duration_seconds",
			Help:      "Requirement explosion duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"mode"},
	)

	m.PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "plans_total",
			Help:      "Planning runs by outcome: a global status or an error code",
		},
		[]string{"outcome"},
	)

	m.WorkOrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "work_orders_created_total",
			Help:      "Work orders committed by planning runs",
		},
		[]string{"status"},
	)

	m.RequisitionsRaised = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "purchase_requisitions_raised_total",
			Help:      "Purchase requisitions committed by planning runs",
		},
	)

	m.MissingRecipesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "missing_recipes_total",
			Help:      "Producible items found without a default recipe in committed plans",
		},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ExplosionDuration,
		m.PlansTotal,
		m.WorkOrdersCreated,
		m.RequisitionsRaised,
		m.MissingRecipesTotal,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// ExplosionFinished records the duration of one explosion
func (m *Metrics) ExplosionFinished(mode mrp.ShortageMode, duration time.Duration) {
	m.ExplosionDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
}

// PlanCompleted records a committed plan
func (m *Metrics) PlanCompleted(result *dto.PlanResult) {
	m.PlansTotal.WithLabelValues(string(result.GlobalStatus)).Inc()
	m.WorkOrdersCreated.WithLabelValues(string(result.GlobalStatus)).Add(float64(result.WorkOrderCount))
	if result.PurchaseRequisitionCreated {
		m.RequisitionsRaised.Inc()
	}
	m.MissingRecipesTotal.Add(float64(len(result.MissingRecipes)))
}

// PlanFailed records a plan that was rejected or rolled back
func (m *Metrics) PlanFailed(code string) {
	m.PlansTotal.WithLabelValues(code).Inc()
}
