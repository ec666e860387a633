package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

// User representa una cuenta. El core nunca la borra.
type User struct {
	ID             string
	Identifier     string
	IdentifierType types.IdentifierType
	// PasswordHash es nil para cuentas solo-sociales.
	PasswordHash *string `json:"-"`
	Name         string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasLocalCredentials indica si la cuenta tiene password local.
func (u *User) HasLocalCredentials() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Identifier     string
	IdentifierType types.IdentifierType
	PasswordHash   string
	Name           string
	Verified       bool
}

// UserRepository define operaciones sobre usuarios, indexadas por identificador.
type UserRepository interface {
	// FindByIdentifier busca un usuario por email/teléfono.
	// Retorna ErrNotFound si no existe.
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)

	// FindByID busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, userID string) (*User, error)

	// Create crea un usuario.
	// Retorna ErrConflict si el identificador ya existe.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// UpdatePasswordHash reemplaza el hash del password.
	// Retorna ErrNotFound si no existe.
	UpdatePasswordHash(ctx context.Context, identifier, newHash string) (*User, error)
}
