package observability

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/guardia-io/guardia/internal/config"
)

// InitSentry wires hard-failure reporting. A blank DSN disables it, which is
// the normal state in development and tests.
func InitSentry(config *config.SentryConfig) error {
	if config.DSN == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		AttachStacktrace: true,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
