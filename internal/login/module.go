package login

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/guardia-io/guardia/internal/config"
	"github.com/guardia-io/guardia/internal/notify"
	"github.com/guardia-io/guardia/internal/secrets"
)

// NewModule returns the login module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repositories
			fx.Annotate(
				func(db *gorm.DB) UserRepository {
					return NewUserRepository(db)
				},
			),
			fx.Annotate(
				func(db *gorm.DB) AttemptRepository {
					return NewAttemptRepository(db)
				},
			),
			// Provide service
			fx.Annotate(
				func(
					config *config.AppConfig,
					log *zap.Logger,
					users UserRepository,
					attempts AttemptRepository,
					secrets *secrets.Service,
					sender notify.Sender,
				) *Service {
					return NewService(&config.Auth, log, users, attempts, secrets, sender)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
		),
	)
}
