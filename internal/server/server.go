package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/healthbridge/internal/health"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc      *health.Service
	settings KindSettings
	whois    WhoIsClient
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured. settings may be nil
// when the store keeps no per-kind settings.
func New(svc *health.Service, settings KindSettings, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		svc:      svc,
		settings: settings,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables caller identity lookups for requests arriving over
// the tailnet.
func (s *Server) SetTailscale(wc WhoIsClient) {
	s.whois = wc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)
		r.Get("/availability", s.handleAvailability)
		r.Post("/authorization/check", s.handleCheckAuthorization)
		r.Get("/samples", s.handleQuerySamplesGet)
		r.Post("/samples/query", s.handleQuerySamples)
		r.Get("/settings/kinds", s.handleKindSettings)

		// Write endpoints (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/samples", s.handleSaveSample)
			r.Post("/authorization/request", s.handleRequestAuthorization)
			r.Put("/settings/kinds/{kind}", s.handleUpdateKindSetting)
		})
	})
}
