package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dropDatabas3/stockauth/internal/auth/flows"
	"github.com/dropDatabas3/stockauth/internal/auth/local"
	"github.com/dropDatabas3/stockauth/internal/auth/tokens"
)

// Deps son las dependencias del router.
type Deps struct {
	Flows    *flows.Set
	Accounts *local.Context
	Tokens   *tokens.Service
	Cookie   CookieConfig
	// IPLimiter es opcional.
	IPLimiter *IPLimiter
	// Metrics sirve /metrics; nil no monta la ruta.
	Metrics http.Handler
	// Health se consulta en /healthz (p.ej. ping al store).
	Health func(ctx context.Context) error
	Now    func() time.Time
	// TrustProxy toma la IP del cliente de X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewRouter arma el router chi con middlewares y rutas v1.
func NewRouter(d Deps) http.Handler {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	h := &handlers{
		flows: map[string]Flow{
			"signup":          d.Flows.SignUp,
			"login":           d.Flows.Login,
			"forgot-password": d.Flows.ForgotPassword,
		},
		set:      d.Flows,
		accounts: d.Accounts,
		tokens:   d.Tokens,
		cookie:   d.Cookie,
		now:      now,
		health:   d.Health,
	}

	r := chi.NewRouter()
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(WithRecover, WithRequestID, WithMetrics, WithLogging, WithSecurityHeaders)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, codeNotFound, "ruta inexistente")
	})

	r.Get("/healthz", h.healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(WithIPRateLimit(d.IPLimiter), WithNoStore)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/{flow}/otp/request", h.otpRequest)
			r.Post("/{flow}/otp/verify", h.otpVerify)

			r.Post("/signup", h.signUp)
			r.Post("/password/reset", h.resetPassword)
			r.Post("/otp-login", h.otpLogin)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
			r.Post("/logout", h.logout)
		})

		r.With(RequireAccess(d.Tokens.Access())).Get("/me", h.me)
	})
	return r
}
