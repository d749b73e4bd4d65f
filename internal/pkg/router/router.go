package router

import (
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpify/internal/pkg/config"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
	"github.com/shandysiswandi/otpify/internal/pkg/uid"
)

// Handler returns a payload to encode as the envelope's data, or an error.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	// Config provides runtime configuration values.
	Config config.Config
	// UUID generates request correlation IDs.
	UUID uid.StringID
	// JWT validates dashboard bearer tokens.
	JWT jwt.JWT
	// Instrument provides tracing and metrics helpers.
	Instrument instrument.Instrumentation
}

// Router serves the JSON API on top of httprouter. Every endpoint runs the
// shared middleware chain followed by its own route middlewares.
type Router struct {
	hr      *httprouter.Router
	mws     []Middleware
	apiKeys APIKeyResolver
}

// publicRoutes skip bearer authentication. The OTP routes are guarded by
// APIKeyAuth instead.
var publicRoutes = []string{
	"POST /api/otp/send",
	"POST /api/otp/verify",
	"POST /api/auth/register",
	"POST /api/auth/login",
	"POST /api/auth/forgot-password",
	"POST /api/auth/reset-password",
}

// NewRouter builds the application router with the standard middleware chain.
func NewRouter(cfg Config) *Router {
	hr := httprouter.New()
	hr.SaveMatchedRoutePath = true
	hr.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
	})
	hr.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
	})
	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, errorResponse{Message: "Welcome to Email OTP Service API"}, http.StatusOK)
	})

	var proxies []string
	if cfg.Config != nil {
		proxies = cfg.Config.GetArray("app.server.trusted_proxies")
	}

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP(parseTrustedProxies(proxies)),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, newRouteSet(publicRoutes...)),
		},
	}
}

// GET registers a GET endpoint.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws)
}

// POST registers a POST endpoint.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, h, mws)
}

func (r *Router) handle(method, path string, h Handler, mws []Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		result, err := h(&Request{Request: req})
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, result)
	})

	// Concat copies, so route middlewares never leak into the shared chain.
	r.hr.Handler(method, path, Chain(final, slices.Concat(r.mws, mws)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
