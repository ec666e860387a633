package repository

import (
	"context"
	"time"
)

// RefreshToken representa un refresh token opaco persistido.
// Solo se guarda el hash; el valor en claro vive en el cliente.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable indica si el token puede usarse en el instante now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t != nil && t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// CreateRefreshTokenInput contiene los datos para crear un refresh token.
type CreateRefreshTokenInput struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}

// RefreshTokenRepository define operaciones sobre refresh tokens.
type RefreshTokenRepository interface {
	// Create persiste un nuevo refresh token.
	Create(ctx context.Context, input CreateRefreshTokenInput) (*RefreshToken, error)

	// FindByHash busca un token por su hash.
	// Retorna ErrNotFound si no existe.
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Revoke marca el token como revocado (soft-delete). Si ya estaba revocado
	// conserva el instante original. Retorna ErrNotFound si no existe.
	Revoke(ctx context.Context, tokenHash string, at time.Time) error
}
