package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/turnaplay-teams/internal/config"
	"github.com/tendant/turnaplay-teams/internal/http/features/invites"
	"github.com/tendant/turnaplay-teams/internal/http/features/registrations"
	"github.com/tendant/turnaplay-teams/internal/http/middleware"
	"github.com/tendant/turnaplay-teams/internal/httputil"
	"github.com/tendant/turnaplay-teams/pkg/auth"
	"github.com/tendant/turnaplay-teams/pkg/teams"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Service         *teams.Service
	Accounts        registrations.AccountResolver
	Verifier        *auth.TokenVerifier
	RateLimit       config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimit, cfg.Logger)
	query := rateLimiters[middleware.LimiterQuery]
	mutation := rateLimiters[middleware.LimiterMutation]

	registrationsHandler := registrations.NewHandler(cfg.Logger, cfg.Service, cfg.Accounts)
	invitesHandler := invites.NewHandler(cfg.Logger, cfg.Service)

	// Every team route acts on behalf of the token subject.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Verifier))
		registrationsHandler.RegisterRoutes(r, query, mutation)
		invitesHandler.RegisterRoutes(r, query, mutation)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return otelhttp.NewHandler(r, "teams.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)
}
