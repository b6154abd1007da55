// Package httpapi is mavbridge's HTTP surface: the REST routes over
// the message store and link, the WebSocket upgrade endpoint, static
// asset serving, and the ambient /metrics and /healthz routes.
package httpapi

import (
	"embed"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mavbridge-dev/mavbridge/internal/config"
	"github.com/mavbridge-dev/mavbridge/internal/link"
	"github.com/mavbridge-dev/mavbridge/internal/metrics"
	"github.com/mavbridge-dev/mavbridge/internal/middleware"
	"github.com/mavbridge-dev/mavbridge/internal/store"
	"github.com/mavbridge-dev/mavbridge/internal/version"
	"github.com/mavbridge-dev/mavbridge/internal/ws"
)

//go:embed static
var staticFS embed.FS

// Server holds the handles every route needs and assembles the
// chi.Router that serves them.
type Server struct {
	cfg       *config.Config
	link      *link.Handle
	store     *store.Store
	wsManager *ws.Manager
	metrics   *metrics.Metrics
	logger    *log.Logger
}

// New builds a Server from its dependencies. None of cfg, lnk, st, wsm
// may be nil; m may be nil, in which case a fresh set of collectors on
// a private registry is used.
func New(cfg *config.Config, lnk *link.Handle, st *store.Store, wsm *ws.Manager, m *metrics.Metrics, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Server{cfg: cfg, link: lnk, store: st, wsManager: wsm, metrics: m, logger: logger}
}

// Handler builds the complete chi.Router, mounting the versioned API
// routes at "/v1" and, when DefaultAPIVersion is set, also at "/".
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.Recovery(s.logger, s.metrics.PanicsRecovered))
	r.Use(middleware.CORS())
	r.Use(middleware.Timed(func(method, route string, status int, elapsed time.Duration) {
		statusStr := strconv.Itoa(status)
		s.metrics.HTTPRequestsTotal.WithLabelValues(method, route, statusStr).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}))

	mount := func(r chi.Router) {
		r.Get("/info", s.handleInfo)
		r.Get("/mavlink/*", s.handleMavlinkQuery)
		r.Post("/mavlink", s.handleMavlinkPost)
		r.Get("/helper/mavlink", s.handleHelper)
		r.Get("/ws/mavlink", s.handleWebSocket)
	}

	r.Route("/v1", mount)
	if s.cfg.Server.DefaultAPIVersion {
		mount(r)
	}

	r.Get("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/docs.json", s.handleDocsJSON)
	r.Get("/docs", s.handleDocsUI)
	r.Get("/*", s.handleStatic)

	return r
}
