package account_fx

import (
	"cardiocheck/internal/api/client"
	"cardiocheck/internal/config"
	"cardiocheck/internal/repositories"
	"cardiocheck/internal/services"
	"cardiocheck/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	provideAuthService, provideStateCache)

func provideAuthService(api services.AuthAPI, creds *client.Credentials, refresher services.SessionRefresher, cfg config.Config, log *logger.Logger) services.AuthService {
	return services.NewAuthService(api, creds, refresher, cfg.RefreshSkew, log)
}

func provideStateCache(
	repo repositories.SnapshotRepository,
	assessment services.AssessmentService,
	subscription services.SubscriptionService,
	payment services.PaymentService,
	log *logger.Logger) *services.StateCache {
	return services.NewStateCache(repo, assessment, subscription, payment, log)
}
