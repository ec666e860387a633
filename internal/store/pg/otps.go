package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

type otpRepo struct{ pool *pgxpool.Pool }

func (r *otpRepo) Create(ctx context.Context, in repository.CreateOTPInput) (*repository.OTP, error) {
	const query = `
		INSERT INTO otp (identifier, otp_type, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING id, identifier, otp_type, code_hash, attempts, expires_at, consumed_at, created_at
	`
	var createdAt *time.Time
	if !in.CreatedAt.IsZero() {
		createdAt = &in.CreatedAt
	}
	var o repository.OTP
	err := r.pool.QueryRow(ctx, query, in.Identifier, in.Type, in.CodeHash, in.ExpiresAt, createdAt).Scan(
		&o.ID, &o.Identifier, &o.Type, &o.CodeHash, &o.Attempts, &o.ExpiresAt, &o.ConsumedAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *otpRepo) FindLatest(ctx context.Context, identifier string, otpType types.OTPType) (*repository.OTP, error) {
	const query = `
		SELECT id, identifier, otp_type, code_hash, attempts, expires_at, consumed_at, created_at
		FROM otp
		WHERE identifier = $1 AND otp_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var o repository.OTP
	err := r.pool.QueryRow(ctx, query, identifier, otpType).Scan(
		&o.ID, &o.Identifier, &o.Type, &o.CodeHash, &o.Attempts, &o.ExpiresAt, &o.ConsumedAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

// MarkConsumed es atómico: solo la primera actualización encuentra consumed_at NULL.
func (r *otpRepo) MarkConsumed(ctx context.Context, otpID string, at time.Time) error {
	const query = `UPDATE otp SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, otpID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RecordAttempt no toca registros consumidos; el contador se lee del RETURNING.
func (r *otpRepo) RecordAttempt(ctx context.Context, otpID string) (int, error) {
	const query = `UPDATE otp SET attempts = attempts + 1 WHERE id = $1 AND consumed_at IS NULL RETURNING attempts`
	var n int
	if err := r.pool.QueryRow(ctx, query, otpID).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func (r *otpRepo) Delete(ctx context.Context, otpID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM otp WHERE id = $1`, otpID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
