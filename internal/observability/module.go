package observability

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/guardia-io/guardia/internal/config"
)

// Module wires sentry into the application lifecycle.
func Module() fx.Option {
	return fx.Invoke(registerHooks)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	config *config.AppConfig,
	logger *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := InitSentry(&config.Sentry); err != nil {
				return err
			}
			if config.Sentry.DSN != "" {
				logger.Info("sentry error reporting enabled",
					zap.String("environment", config.Sentry.Environment))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			FlushSentry()
			return nil
		},
	})
}
