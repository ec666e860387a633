package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
)

type refreshTokenRepo struct{ pool *pgxpool.Pool }

func (r *refreshTokenRepo) Create(ctx context.Context, in repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	const query = `
		INSERT INTO refresh_token (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at
	`
	var t repository.RefreshToken
	err := r.pool.QueryRow(ctx, query, in.UserID, in.TokenHash, in.ExpiresAt).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *refreshTokenRepo) FindByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	const query = `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at
		FROM refresh_token WHERE token_hash = $1
	`
	var t repository.RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// Revoke conserva el revoked_at original si ya estaba revocado.
func (r *refreshTokenRepo) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	const query = `
		UPDATE refresh_token
		SET revoked_at = COALESCE(revoked_at, $2), updated_at = $2
		WHERE token_hash = $1
	`
	tag, err := r.pool.Exec(ctx, query, tokenHash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
