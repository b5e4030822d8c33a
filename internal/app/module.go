package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/guardia-io/guardia/internal/authz"
	"github.com/guardia-io/guardia/internal/database"
	"github.com/guardia-io/guardia/internal/login"
	"github.com/guardia-io/guardia/internal/migration"
	"github.com/guardia-io/guardia/internal/notify"
	"github.com/guardia-io/guardia/internal/observability"
	"github.com/guardia-io/guardia/internal/secrets"
	"github.com/guardia-io/guardia/internal/server"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Database
		database.Module(),

		// Schema migrations
		migration.Module(),

		// Error reporting
		observability.Module(),

		// Core modules
		secrets.NewModule(),
		authz.NewModule(),
		notify.NewModule(),
		login.NewModule(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			srv.Stop()
			return nil
		},
	})
}
