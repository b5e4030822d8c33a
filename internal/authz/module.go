package authz

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/guardia-io/guardia/internal/secrets"
)

// NewModule returns the authz module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// Provide strategy
			fx.Annotate(
				func(tokens *secrets.Service, repo Repository, log *zap.Logger) *Strategy {
					return NewStrategy(tokens, repo, log)
				},
			),
		),
	)
}
