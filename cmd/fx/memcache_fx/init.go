package memcache_fx

import (
	"cardiocheck/internal/config"
	"cardiocheck/internal/infra"
	"cardiocheck/internal/repositories"
	"cardiocheck/pkg/logger"
	mem "cardiocheck/pkg/memcache"
	"context"
	"go.uber.org/fx"
)

var Module = fx.Provide(provideStores)

type Stores struct {
	fx.Out

	Credentials mem.KeyValueStore
	// Snapshots stays nil in memory mode, which disables the state cache.
	Snapshots repositories.SnapshotRepository
}

// provideStores picks where credentials live: process memory for
// CARDIO_STORE_DSN=memory, otherwise the sqlite or postgres store.
func provideStores(lc fx.Lifecycle, cfg config.Config, log *logger.Logger) (Stores, error) {
	if infra.IsMemoryDSN(cfg.StoreDSN) {
		log.Debug("credential store in memory")
		return Stores{Credentials: mem.NewStore()}, nil
	}

	db, err := infra.OpenDatabase(cfg.StoreDSN, log)
	if err != nil {
		return Stores{}, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.CloseDatabase(db, log)
			return nil
		},
	})
	return Stores{
		Credentials: repositories.NewCredentialRepository(db),
		Snapshots:   repositories.NewSnapshotRepository(db),
	}, nil
}
