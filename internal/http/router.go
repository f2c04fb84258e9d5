package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/oddsock-dev/tokend/internal/service"
	"github.com/oddsock-dev/tokend/internal/store"
	"github.com/oddsock-dev/tokend/pkg/httpx"
	"github.com/oddsock-dev/tokend/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	TokenService     *service.TokenService
	ClientService    *service.ClientService
	BootstrapService *service.BootstrapService

	// Configured token lifetimes handed to the token service per request.
	// Clients never influence these.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerTokens()
	r.registerClients()
	r.registerBootstrap()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerTokens() {
	// POST /token - strict rate limit by IP + client_id (credential endpoint)
	tokenHandler := &TokenHandler{
		TokenService: r.TokenService,
		AccessTTL:    r.AccessTTL,
		RefreshTTL:   r.RefreshTTL,
	}
	r.Mux.Handle("POST /token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "client_id"),
		),
	)

	// POST /token-refresh - strict rate limit by IP
	refreshHandler := &TokenRefreshHandler{
		TokenService: r.TokenService,
		AccessTTL:    r.AccessTTL,
		RefreshTTL:   r.RefreshTTL,
	}
	r.Mux.Handle("POST /token-refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{ClientService: r.ClientService}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			BearerAuth(r.TokenService),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /clients", secured(h.HandleCreate))
	r.Mux.Handle("GET /clients", secured(h.HandleList))
	r.Mux.Handle("GET /clients/{client_id}", secured(h.HandleGet))
	r.Mux.Handle("DELETE /clients/{client_id}", secured(h.HandleDelete))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
