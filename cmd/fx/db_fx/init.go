package db_fx

import (
	"cardiocheck/internal/config"
	"cardiocheck/internal/infra"
	"cardiocheck/internal/sandbox"
	"cardiocheck/pkg/logger"
	"context"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideDB)

// provideDB opens and seeds the sandbox backend's database.
func provideDB(lc fx.Lifecycle, cfg config.Config, log *logger.Logger) (*gorm.DB, error) {
	db, err := infra.OpenSandboxDatabase(cfg.Sandbox.DSN, log)
	if err != nil {
		return nil, err
	}
	if err := sandbox.Seed(context.Background(), db, nil, log); err != nil {
		infra.CloseDatabase(db, log)
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.CloseDatabase(db, log)
			return nil
		},
	})
	return db, nil
}
