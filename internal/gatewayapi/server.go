// Package gatewayapi wires the admission pipeline (rate limiter, auth
// middleware, authorization engine, HTTP/WS proxy, login/register) behind
// a chi router, generalizing the teacher's httpapi.Server/Routes shape.
package gatewayapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/toolbridge/gateway/internal/apierr"
	"github.com/toolbridge/gateway/internal/authz"
	"github.com/toolbridge/gateway/internal/httpproxy"
	"github.com/toolbridge/gateway/internal/jwtmanager"
	"github.com/toolbridge/gateway/internal/ratelimit"
	"github.com/toolbridge/gateway/internal/store"
	"github.com/toolbridge/gateway/internal/wsproxy"
)

// Server holds every constructor-injected collaborator (spec §9's
// "global singletons" design note resolved as a root application struct).
type Server struct {
	Store      *store.Store
	Authz      *authz.Engine
	JWTManager *jwtmanager.Manager
	Limiter    *ratelimit.Limiter
	HTTPProxy  *httpproxy.Proxy
	WSProxy    *wsproxy.Proxy

	SystemCode string
}

// Routes builds the full router: global middleware (request id, real ip,
// correlation id, recoverer, CORS, rate limit) then the auth-gated
// /authentication and /gateway surfaces, mirroring the nested r.Group
// structure in the teacher's router.go.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware)
	r.Use(RateLimitMiddleware(s.Limiter))

	r.Get("/healthz", s.Healthz)

	// The WS upgrade has no Authorization header in the normal case (browsers
	// can't set one on a handshake), so the source never puts
	// Depends(get_current_user) on this route either — only the HTTP proxy
	// carries it. Mounting it inside AuthMiddleware would make every /ws/*
	// request resolve against a /gateway-stripped endpoint lookup that never
	// matches, so it stays outside the auth group.
	r.Get("/ws/*", s.WSProxy.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Post("/authentication/login", s.Login)
		r.Post("/authentication/register", s.Register)

		r.HandleFunc("/gateway/*", s.HTTPProxy.ServeHTTP)
	})

	return r
}

// Healthz is unauthenticated and unrate-limited-beyond-the-global-limiter,
// for load balancer / orchestrator probes — carried forward from the
// teacher even though it's outside spec.md's explicit module breakdown.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	apierr.WriteResult(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Ctx(r.Context()).Error().Err(err).Msg("internal error")
	apierr.WriteError(w, r, http.StatusInternalServerError, "internal server error")
}

func forbidden(w http.ResponseWriter, r *http.Request, detail string) {
	apierr.WriteError(w, r, http.StatusForbidden, detail)
}

func notFound(w http.ResponseWriter, r *http.Request, detail string) {
	apierr.WriteError(w, r, http.StatusNotFound, detail)
}

func withClaims(ctx context.Context, claims jwt.MapClaims, userID int64) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	ctx = context.WithValue(ctx, userIDKey, userID)
	return ctx
}
