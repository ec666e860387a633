package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
)

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, identifier, identifier_type, password_hash, name, verified, created_at, updated_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Identifier, &u.IdentifierType, &u.PasswordHash, &u.Name, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) FindByIdentifier(ctx context.Context, identifier string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE identifier = $1`, identifier))
}

func (r *userRepo) FindByID(ctx context.Context, userID string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, userID))
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	const query = `
		INSERT INTO app_user (identifier, identifier_type, password_hash, name, verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query,
		in.Identifier, in.IdentifierType, nullIfEmpty(in.PasswordHash), in.Name, in.Verified,
	))
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, identifier, newHash string) (*repository.User, error) {
	const query = `
		UPDATE app_user SET password_hash = $2, updated_at = NOW()
		WHERE identifier = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, identifier, newHash))
}

// nullIfEmpty retorna nil si s está vacío (columna NULL).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
