package local

import (
	"context"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

// UserStrategy resuelve usuarios de un tipo de identificador.
type UserStrategy interface {
	Type() types.IdentifierType
	Find(ctx context.Context, identifier string) (*repository.User, error)
	Create(ctx context.Context, p NewUser) (*repository.User, error)
	UpdatePassword(ctx context.Context, identifier, hash string) (*repository.User, error)
}

// NewUser son los datos ya validados y hasheados que recibe una estrategia.
type NewUser struct {
	Identifier   string
	PasswordHash string
	Name         string
	Verified     bool
}

// RepoStrategy implementa UserStrategy sobre un UserRepository.
// Normaliza el identificador según su tipo antes de cada consulta.
type RepoStrategy struct {
	kind  types.IdentifierType
	users repository.UserRepository
}

func NewEmailStrategy(users repository.UserRepository) *RepoStrategy {
	return &RepoStrategy{kind: types.IdentifierEmail, users: users}
}

func NewPhoneStrategy(users repository.UserRepository) *RepoStrategy {
	return &RepoStrategy{kind: types.IdentifierPhone, users: users}
}

func (s *RepoStrategy) Type() types.IdentifierType { return s.kind }

func (s *RepoStrategy) Find(ctx context.Context, identifier string) (*repository.User, error) {
	return s.users.FindByIdentifier(ctx, types.NormalizeIdentifier(s.kind, identifier))
}

func (s *RepoStrategy) Create(ctx context.Context, p NewUser) (*repository.User, error) {
	return s.users.Create(ctx, repository.CreateUserInput{
		Identifier:     types.NormalizeIdentifier(s.kind, p.Identifier),
		IdentifierType: s.kind,
		PasswordHash:   p.PasswordHash,
		Name:           p.Name,
		Verified:       p.Verified,
	})
}

func (s *RepoStrategy) UpdatePassword(ctx context.Context, identifier, hash string) (*repository.User, error) {
	return s.users.UpdatePasswordHash(ctx, types.NormalizeIdentifier(s.kind, identifier), hash)
}
