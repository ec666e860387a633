// Package memory implementa un adapter en memoria.
// Útil para dev y para los tests de los services; no persiste nada.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	return New(), nil
}

// Store guarda users, refresh tokens y OTPs en mapas protegidos por un único mutex.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users        map[string]*repository.User // por id
	byIdentifier map[string]string           // identifier → id
	tokens       map[string]*repository.RefreshToken
	otps         []*repository.OTP // en orden de inserción
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		now:          time.Now,
		users:        make(map[string]*repository.User),
		byIdentifier: make(map[string]string),
		tokens:       make(map[string]*repository.RefreshToken),
	}
}

// WithClock reemplaza el reloj usado para created_at/updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Name() string                   { return "memory" }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &refreshTokenRepo{s} }
func (s *Store) OTPs() repository.OTPRepository                   { return &otpRepo{s} }

var _ store.Connection = (*Store)(nil)
