package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects process counters for the serving loop. All
// methods are safe on a nil receiver so an unmetered server pays
// nothing.
type Metrics struct {
	handles       prometheus.Gauge
	authEntries   prometheus.Gauge
	pendingWrites prometheus.Gauge
	broadcasts    prometheus.Counter
	deadHandles   prometheus.Counter
	requests      *prometheus.CounterVec
}

// NewMetrics registers the server's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		handles: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "access_handles_live",
			Help: "Live file and directory handles.",
		}),
		authEntries: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "access_auth_entries",
			Help: "Occupied authentication cache entries.",
		}),
		pendingWrites: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "access_pending_writes",
			Help: "In-flight write transfers.",
		}),
		broadcasts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "access_broadcasts_sent_total",
			Help: "Share and printer announcements sent.",
		}),
		deadHandles: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "access_dead_handles_announced_total",
			Help: "Handle ids announced as dead.",
		}),
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "access_requests_total",
			Help: "RPC packets received by command byte.",
		}, []string{"command"}),
	}
}

func (m *Metrics) countRequest(cmd byte) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(cmd)).Inc()
}

func (m *Metrics) countBroadcast() {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
}

func (m *Metrics) countDeadHandles(n int) {
	if m == nil {
		return
	}
	m.deadHandles.Add(float64(n))
}

func (m *Metrics) setOccupancy(handles, authEntries, pendingWrites int) {
	if m == nil {
		return
	}
	m.handles.Set(float64(handles))
	m.authEntries.Set(float64(authEntries))
	m.pendingWrites.Set(float64(pendingWrites))
}

// MetricsHandler serves /metrics and /healthz for a registry. It is
// meant for a loopback-only listener, away from protocol traffic.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return r
}
