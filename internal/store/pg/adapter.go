// Package pg implementa el adapter PostgreSQL sobre pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/store"
	"github.com/dropDatabas3/stockauth/internal/store/migrations"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 2
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &Connection{pool: pool}, nil
}

// Connection es una conexión activa a PostgreSQL.
type Connection struct {
	pool *pgxpool.Pool
}

func (c *Connection) Name() string { return "postgres" }

func (c *Connection) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}

// ─── Repositorios ───

func (c *Connection) Users() repository.UserRepository                 { return &userRepo{pool: c.pool} }
func (c *Connection) RefreshTokens() repository.RefreshTokenRepository { return &refreshTokenRepo{pool: c.pool} }
func (c *Connection) OTPs() repository.OTPRepository                   { return &otpRepo{pool: c.pool} }

// Migrate implementa store.Migrator con goose sobre un *sql.DB del mismo pool.
func (c *Connection) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(c.pool)
	defer db.Close()
	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("pg: migrate: %w", err)
	}
	return nil
}

// mapErr traduce errores de pgx a los sentinels del dominio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

var (
	_ store.Connection = (*Connection)(nil)
	_ store.Migrator   = (*Connection)(nil)
)
