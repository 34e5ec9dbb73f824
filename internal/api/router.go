package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/signet-auth/signet/internal/api/handler"
	"github.com/signet-auth/signet/internal/api/middleware"
	"github.com/signet-auth/signet/internal/core/domain"
	"github.com/signet-auth/signet/internal/core/ports"
)

// route binds one operation to its handler and its authorization policy. The
// table below is the single declarative source of what each endpoint
// requires; the HMAC middleware consumes the policy before the handler runs.
type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	policy  domain.Policy
}

// Options carries the router's collaborators and deployment switches.
type Options struct {
	Store   ports.CredentialStore
	Service ports.IdentityService
	Mongo   *mongo.Database // readiness probe only, may be nil
	Redis   *redis.Client   // readiness probe only, may be nil
	Debug   bool
	Logger  zerolog.Logger
	// Registry receives the HTTP middleware metrics. Nil selects the
	// default registry; tests pass their own to avoid duplicate
	// registration across router instances.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if opts.Registry != nil {
		registerer = opts.Registry
		gatherer = opts.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "signet",
		Registerer: registerer,
	}))

	// --- Credential administration ---
	users := handler.NewAPIUserHandler(opts.Service, opts.Logger)
	admin := domain.Restricted(domain.RoleAdmin)

	routes := []route{
		{http.MethodGet, "/auth/apiuser", users.List, admin},
		{http.MethodGet, "/auth/apiuser/:key", users.View, admin},
		{http.MethodPost, "/auth/apiuser", users.Create, admin},
		{http.MethodPut, "/auth/apiuser/:key", users.Update, admin},
		{http.MethodDelete, "/auth/apiuser/:key", users.Delete, admin},
		{http.MethodPost, "/auth/apiuser/:key/enable", users.Enable, admin},
		{http.MethodPost, "/auth/apiuser/:key/disable", users.Disable, admin},
		{http.MethodPut, "/auth/apiuser/:key/role/:role", users.AddRole, admin},
		{http.MethodDelete, "/auth/apiuser/:key/role/:role", users.RemoveRole, admin},
	}
	for _, r := range routes {
		e.Add(r.method, r.path, r.handler, middleware.HMAC(opts.Store, r.policy, opts.Logger))
	}

	// --- Signature debugging (never registered outside the debug profile) ---
	if opts.Debug {
		dbg := handler.NewDebugHandler(opts.Store)
		public := domain.Public()
		for _, method := range []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		} {
			e.Add(method, "/auth/debug", dbg.Debug, middleware.HMAC(opts.Store, public, opts.Logger))
		}
	}

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(opts.Mongo, opts.Redis).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	}))

	return e
}
