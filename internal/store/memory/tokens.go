package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
)

type refreshTokenRepo struct{ s *Store }

func cloneToken(t *repository.RefreshToken) *repository.RefreshToken {
	cp := *t
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		cp.RevokedAt = &at
	}
	return &cp
}

func (r *refreshTokenRepo) Create(ctx context.Context, in repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.tokens[in.TokenHash]; exists {
		return nil, repository.ErrConflict
	}
	now := r.s.now()
	t := &repository.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		TokenHash: in.TokenHash,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.tokens[t.TokenHash] = t
	return cloneToken(t), nil
}

func (r *refreshTokenRepo) FindByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(t), nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return repository.ErrNotFound
	}
	if t.RevokedAt == nil {
		t.RevokedAt = &at
		t.UpdatedAt = at
	}
	return nil
}
