package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/guardia-io/guardia/internal/api"
	"github.com/guardia-io/guardia/internal/authz"
	"github.com/guardia-io/guardia/internal/config"
	"github.com/guardia-io/guardia/internal/login"
)

const defaultShutdownTimeout = 10 * time.Second

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config       *config.AppConfig
	Logger       *zap.Logger
	LoginHandler *login.Handler
	Strategy     *authz.Strategy
}

func NewServer(p Params) *Server {
	mux := http.NewServeMux()

	// Public login-flow endpoints.
	mux.HandleFunc(api.RouteIdentifyUser, p.LoginHandler.IdentifyUser)
	mux.HandleFunc(api.RouteVerifyCode, p.LoginHandler.VerifyCode)
	mux.HandleFunc(api.RouteRegisterUser, p.LoginHandler.Register)
	mux.HandleFunc(api.RouteResetPassword, p.LoginHandler.ResetPassword)

	// Protected endpoints, each guarded by its declared (menu, action) pair.
	mux.Handle(api.RouteListUsers, p.Strategy.RequirePermission(
		api.Requirements[api.RouteListUsers],
		http.HandlerFunc(p.LoginHandler.ListUsers),
	))

	addr := fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(p.Logger, mux),
		ReadTimeout:  p.Config.Server.ReadTimeout,
		WriteTimeout: p.Config.Server.WriteTimeout,
	}

	return &Server{
		config:     p.Config,
		log:        p.Logger,
		httpServer: httpServer,
	}
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func (s *Server) Stop() {
	s.log.Info("shutting down HTTP server")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("failed to shut down cleanly", zap.Error(err))
	}
}

func requestLogger(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddDuration("read_timeout", config.Server.ReadTimeout)
		enc.AddDuration("write_timeout", config.Server.WriteTimeout)
		return nil
	})
}
