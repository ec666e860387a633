// Package app es la raíz de composición: arma cada componente a partir de config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/stockauth/internal/auth/flows"
	"github.com/dropDatabas3/stockauth/internal/auth/local"
	"github.com/dropDatabas3/stockauth/internal/auth/otpflow"
	"github.com/dropDatabas3/stockauth/internal/auth/tokens"
	"github.com/dropDatabas3/stockauth/internal/config"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	httpx "github.com/dropDatabas3/stockauth/internal/http"
	"github.com/dropDatabas3/stockauth/internal/metrics"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
	"github.com/dropDatabas3/stockauth/internal/otp"
	"github.com/dropDatabas3/stockauth/internal/otp/sender"
	"github.com/dropDatabas3/stockauth/internal/rate"
	"github.com/dropDatabas3/stockauth/internal/security/password"
	"github.com/dropDatabas3/stockauth/internal/security/signer"
	"github.com/dropDatabas3/stockauth/internal/store"
	_ "github.com/dropDatabas3/stockauth/internal/store/all"
)

// Secretos de desarrollo, solo fuera de prod.
const (
	devStateSecret  = "dev-state-secret-change-me"
	devAccessSecret = "dev-access-secret-change-me"
)

// App es la aplicación cableada.
type App struct {
	Config   *config.Config
	Store    store.Connection
	Senders  *sender.Registry
	Accounts *local.Context
	Tokens   *tokens.Service
	Flows    *flows.Set
	Handler  http.Handler
	Registry *prometheus.Registry

	closers []func() error
}

type options struct {
	strategies []sender.Strategy
	registry   *prometheus.Registry
	now        func() time.Time
	redis      rdb.UniversalClient
}

// Option ajusta la composición (principalmente para tests).
type Option func(*options)

// WithStrategies reemplaza las estrategias de envío derivadas de la config.
func WithStrategies(s ...sender.Strategy) Option {
	return func(o *options) { o.strategies = s }
}

// WithRegistry usa reg en lugar de un registry nuevo.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithClock reemplaza el reloj de los servicios.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRedis inyecta el cliente del rate limiter (si rate.kind=redis).
func WithRedis(c rdb.UniversalClient) Option {
	return func(o *options) { o.redis = c }
}

// New arma la aplicación. Ante cualquier error libera lo ya abierto.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	log := logger.Named("app")
	a := &App{Config: cfg, Registry: o.registry}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// ─── Métricas ───
	if err := metrics.Register(o.registry); err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		_ = o.registry.Register(c)
	}

	// ─── Store ───
	conn, err := store.Open(ctx, store.AdapterConfig{
		Name:     cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.Postgres.MaxConns,
		MinConns: cfg.Storage.Postgres.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("app: store: %w", err)
	}
	a.Store = conn
	a.closers = append(a.closers, conn.Close)
	if m, ok := conn.(store.Migrator); ok && cfg.Storage.AutoMigrate {
		if err := m.Migrate(ctx); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
	}
	if c, ok := conn.(interface{ Collector() prometheus.Collector }); ok {
		if err := o.registry.Register(c.Collector()); err != nil {
			return nil, fmt.Errorf("app: pool collector: %w", err)
		}
	}

	// ─── Seguridad ───
	stateSecret, accessSecret := cfg.JWT.StateSecret, cfg.JWT.AccessSecret
	if !cfg.IsProd() {
		if stateSecret == "" {
			stateSecret = devStateSecret
			log.Warn("jwt.state_secret not set, using development secret")
		}
		if accessSecret == "" {
			accessSecret = devAccessSecret
			log.Warn("jwt.access_secret not set, using development secret")
		}
	}
	stateSigner, err := signer.New[otpflow.State]([]byte(stateSecret), signer.WithIssuer(cfg.JWT.Issuer), signer.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("app: state signer: %w", err)
	}
	accessSigner, err := signer.New[tokens.AccessPayload]([]byte(accessSecret), signer.WithIssuer(cfg.JWT.Issuer), signer.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("app: access signer: %w", err)
	}

	hasher, err := password.New(cfg.Password.Algorithm, password.Params{
		Memory:      cfg.Password.Argon2.MemoryKiB,
		Time:        cfg.Password.Argon2.Time,
		Parallelism: cfg.Password.Argon2.Parallelism,
	}, cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}
	policy, err := passwordPolicy(cfg)
	if err != nil {
		return nil, err
	}

	// ─── Envío de OTP ───
	strategies := o.strategies
	if strategies == nil {
		strategies = buildStrategies(cfg, log)
	}
	reg, err := sender.NewRegistry(strategies...)
	if err != nil {
		return nil, fmt.Errorf("app: senders: %w", err)
	}
	a.Senders = reg

	gen, err := otp.NewGenerator(cfg.OTP.Min, cfg.OTP.Max)
	if err != nil {
		return nil, err
	}
	durations := otp.Durations(cfg.OTPDurations())
	if err := durations.Validate(); err != nil {
		return nil, err
	}

	// ─── Rate limiting ───
	limiter, err := a.otpLimiter(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	// ─── Servicios ───
	users := conn.Users()
	accounts, err := local.NewContext(hasher, policy, local.NewEmailStrategy(users), local.NewPhoneStrategy(users))
	if err != nil {
		return nil, err
	}
	a.Accounts = accounts
	a.Tokens = tokens.NewService(
		tokens.NewAccessService(accessSigner, cfg.AccessTTL()),
		tokens.NewRefreshService(conn.RefreshTokens(), users, cfg.RefreshTTL(), o.now),
	)

	a.Flows, err = flows.NewSet(flows.Deps{
		Creator: otp.NewCreateService(otp.CreateDeps{
			Repo:      conn.OTPs(),
			Hasher:    hasher,
			Generator: gen,
			Sender:    reg,
			Durations: durations,
			Now:       o.now,
		}),
		Verifier:       otp.NewVerifyService(conn.OTPs(), hasher, o.now).WithMaxAttempts(cfg.OTP.MaxAttempts),
		Signer:         stateSigner,
		Senders:        reg,
		DefaultSenders: cfg.DefaultSenders(),
		StateTTL:       cfg.StateTTL(),
		VerifiedTTL:    cfg.VerifiedTTL(),
		Limiter:        limiter,
		Accounts:       accounts,
		Users:          users,
		Tokens:         a.Tokens,
	})
	if err != nil {
		return nil, err
	}

	// ─── HTTP ───
	a.Handler = httpx.NewRouter(httpx.Deps{
		Flows:    a.Flows,
		Accounts: accounts,
		Tokens:   a.Tokens,
		Cookie: httpx.CookieConfig{
			Name:     cfg.Cookie.Name,
			Domain:   cfg.Cookie.Domain,
			Path:     cfg.Cookie.Path,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSite,
		},
		IPLimiter:  httpx.NewIPLimiter(cfg.Rate.IP.RPS, cfg.Rate.IP.Burst),
		Metrics:    httpx.MetricsHandler(o.registry),
		Health:     conn.Ping,
		Now:        o.now,
		TrustProxy: cfg.Server.TrustProxy,
	})

	log.Info("app wired",
		logger.String("storage", conn.Name()),
		logger.String("rate", cfg.Rate.Kind),
		zap.Any("senders", reg.Types()),
	)
	return a, nil
}

// Server arma el servidor HTTP con los timeouts de la config.
func (a *App) Server() *httpx.Server {
	return httpx.NewServer(httpx.ServerConfig{
		Addr:            a.Config.Server.Addr,
		ReadTimeout:     a.Config.ReadTimeout(),
		WriteTimeout:    a.Config.WriteTimeout(),
		ShutdownTimeout: a.Config.ShutdownTimeout(),
	}, a.Handler)
}

// Close libera recursos en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func passwordPolicy(cfg *config.Config) (password.Policy, error) {
	p := password.Policy{
		MinLength:     cfg.Password.MinLength,
		RequireUpper:  cfg.Password.RequireUpper,
		RequireLower:  cfg.Password.RequireLower,
		RequireDigit:  cfg.Password.RequireDigit,
		RequireSymbol: cfg.Password.RequireSymbol,
	}
	if cfg.Password.BlacklistPath != "" {
		bl, err := password.LoadBlacklist(cfg.Password.BlacklistPath)
		if err != nil {
			return p, fmt.Errorf("app: password blacklist: %w", err)
		}
		p.Blacklist = bl
	}
	return p, nil
}

// buildStrategies: email por SMTP si hay host; el resto de los canales
// por defecto quedan log-only fuera de prod.
func buildStrategies(cfg *config.Config, log *zap.Logger) []sender.Strategy {
	var out []sender.Strategy
	seen := map[types.SenderType]bool{}
	add := func(s sender.Strategy) {
		if !seen[s.Type()] {
			seen[s.Type()] = true
			out = append(out, s)
		}
	}

	if cfg.SMTP.Host != "" {
		add(sender.NewEmailStrategy(sender.NewSMTPMailer(sender.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			User:               cfg.SMTP.User,
			Pass:               cfg.SMTP.Pass,
			TLSMode:            cfg.SMTP.TLSMode,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		})))
	}
	for _, st := range cfg.Senders.LogOnly {
		add(sender.NewLogStrategy(types.SenderType(st), log))
	}
	if !cfg.IsProd() {
		for _, st := range cfg.DefaultSenders() {
			if !seen[st] {
				log.Warn("no provider for default sender, logging only", logger.SenderType(string(st)))
				add(sender.NewLogStrategy(st, log))
			}
		}
	}
	return out
}

func (a *App) otpLimiter(ctx context.Context, cfg *config.Config, o options) (rate.Limiter, error) {
	switch cfg.Rate.Kind {
	case "off":
		return nil, nil
	case "redis":
		client := o.redis
		if client == nil {
			c := rdb.NewClient(&rdb.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			a.closers = append(a.closers, c.Close)
			if err := c.Ping(ctx).Err(); err != nil {
				// el limiter falla abierto; solo avisamos
				logger.Named("app").Warn("redis unavailable at startup", logger.Err(err))
			}
			client = c
		}
		return rate.NewRedisLimiter(client, cfg.Redis.Prefix, cfg.Rate.OTP.Limit, cfg.OTPRateWindow()).WithClock(o.now), nil
	default:
		return rate.NewMemoryLimiter(cfg.Rate.OTP.Limit, cfg.OTPRateWindow()).WithClock(o.now), nil
	}
}
