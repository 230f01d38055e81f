package main

import (
	"cardiocheck/cmd/fx/config_fx"
	"cardiocheck/cmd/fx/controllers_fx"
	"cardiocheck/cmd/fx/db_fx"
	"cardiocheck/cmd/fx/logger_fx"
	"cardiocheck/cmd/fx/sandbox_fx"
	"cardiocheck/internal/config"
	"cardiocheck/pkg/logger"
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"net"
	"net/http"
	"time"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		logger_fx.FxLogger,
		db_fx.Module,
		sandbox_fx.Module,
		controllers_fx.Module,

		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *logger.Logger) {
	srv := &http.Server{
		Addr:              cfg.Sandbox.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				log.Info("Starting sandbox HTTP server", "addr", ln.Addr().String())
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("sandbox server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping sandbox HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
