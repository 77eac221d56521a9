package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	LeadsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_evaluated_total",
			Help: "Lead evaluations by resulting tier",
		},
		[]string{"tier"},
	)
	SchemaMismatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_schema_mismatches_total",
			Help: "Conditions skipped during scoring because their value kind did not match the criterion",
		},
		[]string{"criterion"},
	)
	ManualQualifications = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "manual_qualifications_total",
		Help: "Leads marked qualified by hand",
	})
	ThresholdEdits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threshold_edits_total",
			Help: "Threshold edits by field and outcome",
		},
		[]string{"field", "outcome"},
	)
	SessionLeads = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "session_leads",
		Help: "Number of leads held in the session store",
	})
	SessionSegments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "session_segments",
		Help: "Number of saved segments in the session store",
	})
)

func Init() {
	prometheus.MustRegister(
		httpReqs, httpDur,
		LeadsEvaluated, SchemaMismatches, ManualQualifications, ThresholdEdits,
		SessionLeads, SessionSegments,
	)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		// chi fills in the pattern while routing, so read it afterwards
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
