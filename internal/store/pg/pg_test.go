package pg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/store"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, mapErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), repository.ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505", ConstraintName: "app_user_identifier_key"}), repository.ErrConflict)

	other := errors.New("boom")
	assert.Same(t, other, mapErr(other))
}

// Integración contra un Postgres real: STOCKAUTH_TEST_DSN=postgres://... go test ./internal/store/pg
func TestIntegration(t *testing.T) {
	dsn := os.Getenv("STOCKAUTH_TEST_DSN")
	if dsn == "" {
		t.Skip("STOCKAUTH_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := store.Open(ctx, store.AdapterConfig{Name: "postgres", DSN: dsn})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.(store.Migrator).Migrate(ctx))

	ident := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	u, err := conn.Users().Create(ctx, repository.CreateUserInput{
		Identifier: ident, IdentifierType: types.IdentifierEmail, PasswordHash: "h",
	})
	require.NoError(t, err)

	_, err = conn.Users().Create(ctx, repository.CreateUserInput{Identifier: ident, IdentifierType: types.IdentifierEmail})
	assert.ErrorIs(t, err, repository.ErrConflict)

	hash := "rt-" + u.ID
	_, err = conn.RefreshTokens().Create(ctx, repository.CreateRefreshTokenInput{UserID: u.ID, TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, conn.RefreshTokens().Revoke(ctx, hash, time.Now()))
	require.NoError(t, conn.RefreshTokens().Revoke(ctx, hash, time.Now()))

	o, err := conn.OTPs().Create(ctx, repository.CreateOTPInput{Identifier: ident, Type: types.OTPLogin, CodeHash: "c", ExpiresAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)
	latest, err := conn.OTPs().FindLatest(ctx, ident, types.OTPLogin)
	require.NoError(t, err)
	assert.Equal(t, o.ID, latest.ID)
	n, err := conn.OTPs().RecordAttempt(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, conn.OTPs().MarkConsumed(ctx, o.ID, time.Now()))
	assert.ErrorIs(t, conn.OTPs().MarkConsumed(ctx, o.ID, time.Now()), repository.ErrNotFound)
	_, err = conn.OTPs().RecordAttempt(ctx, o.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	undelivered, err := conn.OTPs().Create(ctx, repository.CreateOTPInput{Identifier: ident, Type: types.OTPLogin, CodeHash: "d", ExpiresAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)
	require.NoError(t, conn.OTPs().Delete(ctx, undelivered.ID))
	assert.ErrorIs(t, conn.OTPs().Delete(ctx, undelivered.ID), repository.ErrNotFound)
}
