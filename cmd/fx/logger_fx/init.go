package logger_fx

import (
	"cardiocheck/internal/config"
	"cardiocheck/pkg/logger"
	"context"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

var Module = fx.Provide(provideLogger)

// FxLogger sends fx's own lifecycle events through the app logger.
var FxLogger = fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: l.SugaredLogger.Desugar()}
})

func provideLogger(lc fx.Lifecycle, cfg config.Config) (*logger.Logger, error) {
	l, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Sync()
			return nil
		},
	})
	return l, nil
}
