// Package migrations embebe las migraciones SQL (formato goose) del adapter postgres.
package migrations

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// Up aplica todas las migraciones pendientes sobre db.
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Version retorna la versión de schema aplicada.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}

// Down revierte la última migración aplicada.
func Down(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, ".")
}
