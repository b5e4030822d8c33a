package notify

import (
	"go.uber.org/fx"

	"github.com/guardia-io/guardia/internal/config"
)

// NewModule returns the notify module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig) Sender {
					if config.Mailer.BaseURL == "" {
						return NoopSender{}
					}
					return NewHTTPSender(&config.Mailer)
				},
			),
		),
	)
}
