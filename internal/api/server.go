package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/TimurManjosov/leadgrade/internal/store"
	"github.com/TimurManjosov/leadgrade/internal/telemetry"
)

// maxRequestBodySize bounds every JSON request body.
const maxRequestBodySize = 1 << 20

// DefaultRateLimit is the per-IP request budget per minute.
const DefaultRateLimit = 100

// Server exposes evaluated views of a session. Manual qualification is the
// only mutation it accepts; configuration is edited through the CLI.
type Server struct {
	store     store.Store
	logger    zerolog.Logger
	rateLimit int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit sets the per-IP requests per minute. Zero or less disables
// rate limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

func NewServer(st store.Store, opts ...Option) *Server {
	s := &Server{store: st, logger: zerolog.Nop(), rateLimit: DefaultRateLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger), hlog.AccessHandler(s.logAccess))
	r.Use(telemetry.Middleware)
	r.Use(middleware.Timeout(5 * time.Second))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.Limit(
				s.rateLimit,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					RateLimitedError(w, r, "Too many requests, slow down")
				}),
			))
		}

		r.Get("/leads", s.handleListLeads)
		r.Post("/leads/search", s.handleSearchLeads)
		r.Get("/leads/{id}", s.handleGetLead)
		r.Post("/leads/{id}/qualify", s.handleQualifyLead)
		r.Get("/summary", s.handleSummary)
		r.Get("/segments", s.handleListSegments)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/config", s.handleGetConfig)
	})

	return r
}

func (s *Server) logAccess(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("request")
}

// ---- helpers ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v. On failure it writes the
// error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RequestTooLargeError(w, r, "Request body exceeds 1MB limit")
			return false
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}
