// Package config carga la configuración: YAML → defaults → env → Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/security/signer"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		// TrustProxy toma la IP del cliente de X-Forwarded-For / X-Real-IP.
		// Solo activar detrás de un proxy que reescriba esos headers.
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns int32 `yaml:"max_conns"`
			MinConns int32 `yaml:"min_conns"`
		} `yaml:"postgres"`
		// AutoMigrate aplica migraciones al arrancar (solo postgres).
		AutoMigrate bool `yaml:"auto_migrate"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Rate struct {
		// memory | redis | off
		Kind string `yaml:"kind"`
		// Límite de pedidos de OTP por (tipo, identificador).
		OTP struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"otp"`
		// Token bucket por IP en la capa HTTP.
		IP struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"ip"`
	} `yaml:"rate"`

	JWT struct {
		Issuer       string `yaml:"issuer"`
		StateSecret  string `yaml:"state_secret"`
		AccessSecret string `yaml:"access_secret"`
		AccessTTL    string `yaml:"access_ttl"`
		StateTTL     string `yaml:"state_ttl"`
		// VerifiedTTL es la vigencia del token VERIFIED (fase 3); <= state_ttl.
		VerifiedTTL string `yaml:"verified_ttl"`
		RefreshTTL  string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	OTP struct {
		Min int64 `yaml:"min"`
		Max int64 `yaml:"max"`
		// MaxAttempts tope de comparaciones por código emitido.
		MaxAttempts int `yaml:"max_attempts"`
		// TTL por tipo: SIGN_UP, LOGIN, FORGET_PASSWORD, VERIFY_EMAIL
		TTL map[string]string `yaml:"ttl"`
	} `yaml:"otp"`

	Senders struct {
		// Canal por tipo de identificador (email → email, phone → sms).
		Defaults map[string]string `yaml:"defaults"`
		// Canales sin proveedor real que se registran como log-only.
		LogOnly []string `yaml:"log_only"`
	} `yaml:"senders"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		From               string `yaml:"from"`
		User               string `yaml:"user"`
		Pass               string `yaml:"pass"`
		TLSMode            string `yaml:"tls_mode"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Password struct {
		// argon2id | bcrypt
		Algorithm     string `yaml:"algorithm"`
		MinLength     int    `yaml:"min_length"`
		RequireUpper  bool   `yaml:"require_upper"`
		RequireLower  bool   `yaml:"require_lower"`
		RequireDigit  bool   `yaml:"require_digit"`
		RequireSymbol bool   `yaml:"require_symbol"`
		BlacklistPath string `yaml:"blacklist_path"`
		BcryptCost    int    `yaml:"bcrypt_cost"`
		Argon2        struct {
			MemoryKiB   uint32 `yaml:"memory_kib"`
			Time        uint32 `yaml:"time"`
			Parallelism uint8  `yaml:"parallelism"`
		} `yaml:"argon2"`
	} `yaml:"password"`

	Cookie struct {
		Name     string `yaml:"name"`
		Domain   string `yaml:"domain"`
		Path     string `yaml:"path"`
		Secure   bool   `yaml:"secure"`
		SameSite string `yaml:"same_site"`
	} `yaml:"cookie"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee path (si existe), aplica defaults y overrides de entorno y valida.
// Un path vacío arranca solo con defaults + env.
func Load(path string) (*Config, error) {
	var b []byte
	if strings.TrimSpace(path) != "" {
		var err error
		b, err = os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, err
		}
	}
	return Parse(b)
}

// Parse es Load sobre un YAML ya leído.
func Parse(b []byte) (*Config, error) {
	var c Config
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "stockauth"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "stockauth:rl:"
	}
	if c.Rate.Kind == "" {
		c.Rate.Kind = "memory"
	}
	if c.Rate.OTP.Limit == 0 {
		c.Rate.OTP.Limit = 5
	}
	if c.Rate.OTP.Window == "" {
		c.Rate.OTP.Window = "10m"
	}
	if c.Rate.IP.RPS == 0 {
		c.Rate.IP.RPS = 10
	}
	if c.Rate.IP.Burst == 0 {
		c.Rate.IP.Burst = 20
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "stockauth"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "10m"
	}
	if c.JWT.StateTTL == "" {
		c.JWT.StateTTL = "30m"
	}
	if c.JWT.VerifiedTTL == "" {
		c.JWT.VerifiedTTL = "5m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.OTP.Min == 0 && c.OTP.Max == 0 {
		c.OTP.Min, c.OTP.Max = 100000, 999999
	}
	if c.OTP.MaxAttempts == 0 {
		c.OTP.MaxAttempts = 5
	}
	defTTL := map[types.OTPType]string{
		types.OTPSignUp:         "10m",
		types.OTPLogin:          "5m",
		types.OTPForgetPassword: "10m",
		types.OTPVerifyEmail:    "24h",
	}
	if c.OTP.TTL == nil {
		c.OTP.TTL = map[string]string{}
	}
	for t, d := range defTTL {
		if _, ok := c.OTP.TTL[string(t)]; !ok {
			c.OTP.TTL[string(t)] = d
		}
	}
	if c.Senders.Defaults == nil {
		c.Senders.Defaults = map[string]string{}
		for it, st := range types.DefaultSenders() {
			c.Senders.Defaults[string(it)] = string(st)
		}
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
	if c.Password.Algorithm == "" {
		c.Password.Algorithm = "argon2id"
	}
	if c.Password.MinLength == 0 {
		c.Password.MinLength = 8
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = "refresh_token"
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = "/v1/auth"
	}
	if c.Cookie.SameSite == "" {
		c.Cookie.SameSite = "lax"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY"); ok {
		c.Server.TrustProxy = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvBool("STORAGE_AUTO_MIGRATE"); ok {
		c.Storage.AutoMigrate = v
	}

	// REDIS / RATE
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("RATE_KIND"); ok {
		c.Rate.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvInt("RATE_OTP_LIMIT"); ok {
		c.Rate.OTP.Limit = v
	}
	if v, ok := getEnvDur("RATE_OTP_WINDOW"); ok {
		c.Rate.OTP.Window = v.String()
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_STATE_SECRET"); ok {
		c.JWT.StateSecret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_SECRET"); ok {
		c.JWT.AccessSecret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_STATE_TTL"); ok {
		c.JWT.StateTTL = v
	}
	if v, ok := getEnvStr("JWT_VERIFIED_TTL"); ok {
		c.JWT.VerifiedTTL = v
	}
	if v, ok := getEnvStr("REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	// OTP
	if v, ok := getEnvInt("OTP_MIN"); ok {
		c.OTP.Min = int64(v)
	}
	if v, ok := getEnvInt("OTP_MAX"); ok {
		c.OTP.Max = int64(v)
	}
	if v, ok := getEnvInt("OTP_MAX_ATTEMPTS"); ok {
		c.OTP.MaxAttempts = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvCSV("SENDERS_LOG_ONLY"); ok {
		c.Senders.LogOnly = v
	}

	if v, ok := getEnvBool("COOKIE_SECURE"); ok {
		c.Cookie.Secure = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// IsProd indica si app.env es prod.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// Validate rechaza configuraciones que no pueden arrancar.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProd() && (c.JWT.StateSecret == "" || c.JWT.AccessSecret == "") {
		errs = append(errs, errors.New("jwt: state_secret and access_secret are required in prod"))
	}
	if c.JWT.StateSecret != "" && c.JWT.StateSecret == c.JWT.AccessSecret {
		errs = append(errs, errors.New("jwt: state_secret must differ from access_secret"))
	}
	for name, v := range map[string]string{
		"jwt.access_ttl":          c.JWT.AccessTTL,
		"jwt.state_ttl":           c.JWT.StateTTL,
		"jwt.verified_ttl":        c.JWT.VerifiedTTL,
		"jwt.refresh_ttl":         c.JWT.RefreshTTL,
		"rate.otp.window":         c.Rate.OTP.Window,
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d, err := signer.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}

	if c.VerifiedTTL() > c.StateTTL() {
		errs = append(errs, fmt.Errorf("jwt: verified_ttl (%s) must not exceed state_ttl (%s)", c.JWT.VerifiedTTL, c.JWT.StateTTL))
	}

	if c.OTP.Min < 0 || c.OTP.Min > c.OTP.Max {
		errs = append(errs, fmt.Errorf("otp: min (%d) must be >= 0 and <= max (%d)", c.OTP.Min, c.OTP.Max))
	}
	if c.OTP.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("otp: max_attempts must be >= 1, got %d", c.OTP.MaxAttempts))
	}
	for k, v := range c.OTP.TTL {
		if !types.OTPType(k).IsValid() {
			errs = append(errs, fmt.Errorf("otp.ttl: unknown otp type %q", k))
			continue
		}
		if d, err := signer.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("otp.ttl.%s: invalid duration %q", k, v))
		}
	}

	for it, st := range c.Senders.Defaults {
		if !types.IdentifierType(it).IsValid() {
			errs = append(errs, fmt.Errorf("senders.defaults: unknown identifier type %q", it))
		}
		if !types.SenderType(st).IsValid() {
			errs = append(errs, fmt.Errorf("senders.defaults.%s: unknown sender %q", it, st))
		}
	}
	for _, st := range c.Senders.LogOnly {
		if !types.SenderType(st).IsValid() {
			errs = append(errs, fmt.Errorf("senders.log_only: unknown sender %q", st))
		}
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage: dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown driver %q", c.Storage.Driver))
	}
	switch c.Rate.Kind {
	case "memory", "off":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("rate: redis.addr is required for kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("rate: unknown kind %q", c.Rate.Kind))
	}
	switch c.SMTP.TLSMode {
	case "auto", "starttls", "ssl", "none":
	default:
		errs = append(errs, fmt.Errorf("smtp: unknown tls_mode %q", c.SMTP.TLSMode))
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("cookie: unknown same_site %q", c.Cookie.SameSite))
	}

	return errors.Join(errs...)
}

// ─── Accesores parseados (válidos tras Validate) ───

func mustDur(s string) time.Duration {
	d, _ := signer.ParseDuration(s)
	return d
}

func (c *Config) AccessTTL() time.Duration       { return mustDur(c.JWT.AccessTTL) }
func (c *Config) StateTTL() time.Duration        { return mustDur(c.JWT.StateTTL) }
func (c *Config) VerifiedTTL() time.Duration     { return mustDur(c.JWT.VerifiedTTL) }
func (c *Config) RefreshTTL() time.Duration      { return mustDur(c.JWT.RefreshTTL) }
func (c *Config) OTPRateWindow() time.Duration   { return mustDur(c.Rate.OTP.Window) }
func (c *Config) ReadTimeout() time.Duration     { return mustDur(c.Server.ReadTimeout) }
func (c *Config) WriteTimeout() time.Duration    { return mustDur(c.Server.WriteTimeout) }
func (c *Config) ShutdownTimeout() time.Duration { return mustDur(c.Server.ShutdownTimeout) }

// OTPDurations retorna la vigencia por tipo.
func (c *Config) OTPDurations() map[types.OTPType]time.Duration {
	out := make(map[types.OTPType]time.Duration, len(c.OTP.TTL))
	for k, v := range c.OTP.TTL {
		out[types.OTPType(k)] = mustDur(v)
	}
	return out
}

// DefaultSenders retorna la tabla identificador → canal.
func (c *Config) DefaultSenders() map[types.IdentifierType]types.SenderType {
	out := make(map[types.IdentifierType]types.SenderType, len(c.Senders.Defaults))
	for k, v := range c.Senders.Defaults {
		out[types.IdentifierType(k)] = types.SenderType(v)
	}
	return out
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := signer.ParseDuration(s); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}
