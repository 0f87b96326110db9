package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openlease/openlease/internal/auth"
	"github.com/openlease/openlease/internal/config"
	"github.com/openlease/openlease/internal/http/features/account"
	"github.com/openlease/openlease/internal/http/features/invites"
	"github.com/openlease/openlease/internal/http/features/join"
	"github.com/openlease/openlease/internal/http/features/links"
	"github.com/openlease/openlease/internal/http/features/properties"
	"github.com/openlease/openlease/internal/http/middleware"
	"github.com/openlease/openlease/internal/httputil"
	"github.com/openlease/openlease/internal/invite"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	AccountService  *auth.AccountService
	SessionService  *auth.SessionService
	Issuer          *invite.Issuer
	Validator       *invite.Validator
	Redeemer        *invite.Redeemer
	PropertyStore   properties.PropertyStore
	LinkStore       links.LinkStore
	PropertyReader  links.PropertyStore
	UserStore       join.UserStore
	AppBaseURL      string
	RateLimitConfig config.RateLimitConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	requireAuth := middleware.Auth(cfg.SessionService)

	// Account endpoints
	accountHandler := account.NewHandler(cfg.Logger, cfg.AccountService, cfg.SessionService)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["auth"])
		r.Post("/v1/auth/register", accountHandler.Register)
		r.Post("/v1/auth/login", accountHandler.Login)
	})

	// Public join endpoints: reachable without authentication, behind
	// the tight join limiter.
	joinHandler := join.NewHandler(cfg.Logger, cfg.Validator, cfg.Redeemer, cfg.SessionService, cfg.UserStore)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["join"])
		r.Get("/v1/join", joinHandler.Validate)
		r.Post("/v1/join/redeem", joinHandler.Redeem)
	})

	// Landlord endpoints
	propertiesHandler := properties.NewHandler(cfg.Logger, cfg.PropertyStore)
	invitesHandler := invites.NewHandler(cfg.Logger, cfg.Issuer, cfg.AppBaseURL)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(rateLimiters["invite"])
		r.Post("/v1/properties", propertiesHandler.Create)
		r.Get("/v1/properties", propertiesHandler.List)
		r.Post("/v1/properties/{propertyID}/invites", invitesHandler.Issue)
		r.Get("/v1/properties/{propertyID}/invites", invitesHandler.List)
		r.Post("/v1/invites/{inviteID}/revoke", invitesHandler.Revoke)
	})

	// Tenant endpoints
	linksHandler := links.NewHandler(cfg.Logger, cfg.LinkStore, cfg.PropertyReader)
	r.With(requireAuth).Get("/v1/me/links", linksHandler.List)

	return r
}
