package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/stockauth/internal/app"
	"github.com/dropDatabas3/stockauth/internal/config"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
	"github.com/dropDatabas3/stockauth/internal/store/migrations"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "stockauth",
		Short:         "Core de autenticación por OTP y credenciales locales",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; las variables del sistema siguen valiendo
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Archivo .env a cargar antes de la config")

	root.AddCommand(newServeCmd(), newMigrateCmd(), &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: cfg.App.Name, Version: version})
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return a.Server().Run(gctx) })
			g.Go(func() error {
				<-gctx.Done()
				logger.Named("main").Info("shutdown requested")
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", envOr("STOCKAUTH_CONFIG", ""), "Archivo YAML de configuración (env STOCKAUTH_CONFIG)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		dsn        string
		configPath string
	)

	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Aplica las migraciones del adapter postgres",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			if dsn == "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("config: %w", err)
				}
				dsn = cfg.Storage.DSN
			}
			if dsn == "" {
				return fmt.Errorf("--dsn es requerido (o storage.dsn en la config)")
			}
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), dsn, action)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", os.Getenv("STORAGE_DSN"), "DSN de PostgreSQL (env STORAGE_DSN)")
	cmd.Flags().StringVarP(&configPath, "config", "c", envOr("STOCKAUTH_CONFIG", ""), "Archivo YAML de configuración")
	return cmd
}

func runMigrate(ctx context.Context, out io.Writer, dsn, action string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	switch action {
	case "up":
		err = migrations.Up(ctx, db)
	case "down":
		err = migrations.Down(ctx, db)
	}
	if err != nil {
		return err
	}
	v, err := migrations.Version(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version: %d\n", v)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
