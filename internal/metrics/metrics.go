package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of the API server. Each instance has its own
// registry so tests can create as many as they need.
type Metrics struct {
	reg *prometheus.Registry

	InspectionsSaved  *prometheus.CounterVec // mode: final, draft
	SavesRejected     prometheus.Counter
	InspectionDeletes prometheus.Counter
	ReportsCompiled   *prometheus.CounterVec // verdict
	MagicLinks        *prometheus.CounterVec // outcome
	SyncPlans         prometheus.Counter
	PhotosCompressed  *prometheus.CounterVec // status
	requestDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		InspectionsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vgp_inspections_saved_total",
			Help: "Inspections stored, partitioned by save mode.",
		}, []string{"mode"}),
		SavesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vgp_inspection_saves_rejected_total",
			Help: "Final saves rejected because required questions were unanswered.",
		}),
		InspectionDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vgp_inspections_deleted_total",
			Help: "Inspections deleted.",
		}),
		ReportsCompiled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vgp_reports_compiled_total",
			Help: "Reports compiled, partitioned by verdict.",
		}, []string{"verdict"}),
		MagicLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vgp_magic_links_total",
			Help: "Magic link requests and verifications, partitioned by outcome.",
		}, []string{"outcome"}),
		SyncPlans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vgp_sync_plans_total",
			Help: "Sync plans computed.",
		}),
		PhotosCompressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vgp_photos_compressed_total",
			Help: "Photo uploads processed, partitioned by status.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vgp_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(
		m.InspectionsSaved,
		m.SavesRejected,
		m.InspectionDeletes,
		m.ReportsCompiled,
		m.MagicLinks,
		m.SyncPlans,
		m.PhotosCompressed,
		m.requestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// TrackGauge registers a gauge read from fn at scrape time
func (m *Metrics) TrackGauge(name, help string, fn func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware records request latency under the chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
