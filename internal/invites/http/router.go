package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
	"github.com/aussiebroadwan/clubhouse/pkg/lockout"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// Limits are the rate-limit profiles applied per route group.
type Limits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

var DefaultLimits = Limits{
	Strict:   httpx.StrictLimit,
	Moderate: httpx.ModerateLimit,
	Lenient:  httpx.LenientLimit,
	Public:   httpx.PublicLimit,
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	InviteService *service.InviteService

	// Lockout throttles repeated failed redemptions per client address.
	Lockout lockout.Lockout

	Limits      Limits
	TrustProxy  bool
	CORSOrigins []string
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Lockout:      lockout.Nop{},
		Limits:       DefaultLimits,
	}
}

// ApplyRoutes registers every endpoint. Call it after the exported fields
// are set.
func (r *Router) ApplyRoutes() {
	// CORS sits outside logging so preflights are answered before routing.
	r.middlewares = []httpx.Middleware{
		httpx.CORS(r.CORSOrigins),
		slogx.HTTPMiddleware(r.logger),
	}

	r.registerInvites()
	r.registerTeams()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInvites() {
	sendHandler := &InviteSendHandler{InviteService: r.InviteService}
	joinHandler := &JoinTeamHandler{
		InviteService: r.InviteService,
		Lockout:       r.Lockout,
		TrustProxy:    r.TrustProxy,
	}
	revokeHandler := &InviteRevokeHandler{InviteService: r.InviteService}

	// POST /invite/send - moderate rate limit by user (coach/admin operation)
	r.Mux.Handle("POST /invite/send",
		httpx.Chain(sendHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.Limits.Moderate, r.TrustProxy),
		),
	)

	// POST /join-team - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /join-team",
		httpx.Chain(joinHandler,
			httpx.RateLimitByIP(r.Limits.Strict, r.TrustProxy),
		),
	)

	// GET /join-team - invite preview for the join page
	r.Mux.Handle("GET /join-team",
		httpx.Chain(http.HandlerFunc(joinHandler.HandlePreview),
			httpx.RateLimitByIP(r.Limits.Public, r.TrustProxy),
		),
	)

	r.Mux.Handle("DELETE /invites/{id}",
		httpx.Chain(revokeHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.Limits.Moderate, r.TrustProxy),
		),
	)
}

func (r *Router) registerTeams() {
	h := &TeamInvitesHandler{InviteService: r.InviteService}

	r.Mux.Handle("GET /teams/{team_id}/invites",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.Limits.Lenient, r.TrustProxy),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Lenient, r.TrustProxy),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(r.Limits.Lenient, r.TrustProxy),
		),
	)
}
