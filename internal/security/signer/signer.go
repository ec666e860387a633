// Package signer firma y verifica tokens HS256 sobre un payload arbitrario.
//
// El secreto se inyecta en la construcción; no hay lookup global.
// Verify distingue expiración (error de dominio TOKEN_EXPIRED, reintentable)
// de cualquier otra falla de integridad (firma, formato), que es inesperada.
package signer

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/stockauth/internal/autherr"
)

// claims envuelve el payload bajo "data" junto a las registered claims.
type claims[T any] struct {
	Data T `json:"data"`
	jwtv5.RegisteredClaims
}

// Signer firma payloads de tipo T.
type Signer[T any] struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configura un Signer.
type Option func(*options)

type options struct {
	issuer string
	now    func() time.Time
}

// WithIssuer setea y exige la claim "iss".
func WithIssuer(iss string) Option {
	return func(o *options) { o.issuer = iss }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New construye un Signer. Un secreto vacío es un error de configuración.
func New[T any](secret []byte, opts ...Option) (*Signer[T], error) {
	if len(secret) == 0 {
		return nil, errors.New("signer: empty secret")
	}
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer[T]{secret: key, issuer: o.issuer, now: o.now}, nil
}

// Sign firma payload con una expiración expresada como duración humana ("10m", "1h", "7d").
func (s *Signer[T]) Sign(payload T, expiresIn string) (string, error) {
	ttl, err := ParseDuration(expiresIn)
	if err != nil {
		return "", autherr.Unexpected(autherr.CodeTokenSignFailed, err)
	}
	return s.SignFor(payload, ttl)
}

// SignFor firma payload con un TTL ya parseado.
func (s *Signer[T]) SignFor(payload T, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", autherr.Unexpected(autherr.CodeTokenSignFailed, fmt.Errorf("signer: non-positive ttl %s", ttl))
	}
	now := s.now()
	c := claims[T]{
		Data: payload,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c)
	signed, err := tk.SignedString(s.secret)
	if err != nil {
		return "", autherr.Unexpected(autherr.CodeTokenSignFailed, err)
	}
	return signed, nil
}

// Verify valida firma y expiración y devuelve el payload original.
func (s *Signer[T]) Verify(token string) (T, error) {
	var zero T

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(s.now),
		jwtv5.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(s.issuer))
	}

	c := &claims[T]{}
	_, err := jwtv5.ParseWithClaims(token, c, func(t *jwtv5.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return zero, autherr.ErrTokenExpired.WithCause(err)
		}
		return zero, autherr.Unexpected(autherr.CodeTokenVerificationFailed, err)
	}
	return c.Data, nil
}
