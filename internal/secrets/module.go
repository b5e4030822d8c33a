package secrets

import (
	"go.uber.org/fx"

	"github.com/guardia-io/guardia/internal/config"
)

// NewModule returns the secrets module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig) *Service {
					return NewService(&config.Auth)
				},
			),
		),
	)
}
