package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
)

type userRepo struct{ s *Store }

func cloneUser(u *repository.User) *repository.User {
	cp := *u
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		cp.PasswordHash = &h
	}
	return &cp
}

func (r *userRepo) FindByIdentifier(ctx context.Context, identifier string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byIdentifier[identifier]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *userRepo) FindByID(ctx context.Context, userID string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	if in.Identifier == "" {
		return nil, repository.ErrInvalidInput
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.byIdentifier[in.Identifier]; exists {
		return nil, repository.ErrConflict
	}
	now := r.s.now()
	u := &repository.User{
		ID:             uuid.NewString(),
		Identifier:     in.Identifier,
		IdentifierType: in.IdentifierType,
		Name:           in.Name,
		Verified:       in.Verified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.PasswordHash != "" {
		h := in.PasswordHash
		u.PasswordHash = &h
	}
	r.s.users[u.ID] = u
	r.s.byIdentifier[u.Identifier] = u.ID
	return cloneUser(u), nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, identifier, newHash string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byIdentifier[identifier]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.s.users[id]
	u.PasswordHash = &newHash
	u.UpdatedAt = r.s.now()
	return cloneUser(u), nil
}
