package http

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig configura la cookie HTTP-only del refresh token.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite string
}

// parseSameSite acepta "", "lax", "strict", "none". Default: Lax.
func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return "refresh_token"
	}
	return c.Name
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// build arma la cookie del refresh token con vencimiento absoluto.
func (c CookieConfig) build(value string, expires time.Time, now time.Time) *http.Cookie {
	maxAge := int(expires.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     c.name(),
		Value:    value,
		Path:     c.path(),
		Domain:   c.Domain,
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(c.SameSite),
	}
}

// deletion devuelve una cookie que el user-agent usa para borrar la existente.
func (c CookieConfig) deletion() *http.Cookie {
	return &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     c.path(),
		Domain:   c.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(c.SameSite),
	}
}

// read retorna el valor de la cookie o "".
func (c CookieConfig) read(r *http.Request) string {
	ck, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return ck.Value
}
