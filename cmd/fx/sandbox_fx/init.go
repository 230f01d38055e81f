package sandbox_fx

import (
	"cardiocheck/internal/config"
	"cardiocheck/internal/repositories"
	"cardiocheck/internal/sandbox"
	"cardiocheck/pkg/logger"
	mem "cardiocheck/pkg/memcache"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Options(
	fx.Provide(
		repositories.NewAccountRepository,
		repositories.NewPlanRepository,
		repositories.NewSubscriptionRepository,
		repositories.NewTransactionRepository,
		repositories.NewPaymentMethodRepository,
		repositories.NewHealthCheckRepository,
	),
	fx.Provide(
		mem.NewStore,
		provideAuthService,
		provideAssessmentService,
		provideBillingService,
	),
)

func provideAuthService(accounts repositories.AccountRepository, tokens *mem.Store, cfg config.Config, log *logger.Logger) sandbox.AuthService {
	return sandbox.NewAuthService(accounts, tokens, sandbox.TokenConfig{
		Secret:     []byte(cfg.Sandbox.JWTSecret),
		AccessTTL:  cfg.Sandbox.AccessTTL,
		RefreshTTL: cfg.Sandbox.RefreshTTL,
	}, nil, log)
}

func provideAssessmentService(db *gorm.DB, checks repositories.HealthCheckRepository, cfg config.Config, log *logger.Logger) sandbox.AssessmentService {
	return sandbox.NewAssessmentService(db, checks, sandbox.Prediction{
		Risk:       cfg.Sandbox.Risk,
		Confidence: cfg.Sandbox.Confidence,
	}, log)
}

func provideBillingService(
	db *gorm.DB,
	plans repositories.IPlanRepository,
	subs repositories.SubscriptionRepository,
	txns repositories.TransactionRepository,
	methods repositories.PaymentMethodRepository,
	log *logger.Logger) sandbox.BillingService {
	return sandbox.NewBillingService(db, plans, subs, txns, methods, nil, log)
}
