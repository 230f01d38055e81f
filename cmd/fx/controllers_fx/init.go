package controllers_fx

import (
	"cardiocheck/internal/api/controllers"
	"cardiocheck/internal/config"
	"cardiocheck/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewAssessmentController),
	fx.Provide(controllers.NewSubscriptionController),
	fx.Provide(controllers.NewPaymentController),
	fx.Provide(ProvideRouter))

func ProvideRouter(
	cfg config.Config,
	log *logger.Logger,
	accountController *controllers.AccountController,
	assessmentController *controllers.AssessmentController,
	subscriptionController *controllers.SubscriptionController,
	paymentController *controllers.PaymentController) *gin.Engine {

	return controllers.NewRouter(controllers.RouterConfig{
		JWTSecret:    []byte(cfg.Sandbox.JWTSecret),
		Logger:       log,
		Account:      accountController,
		Assessment:   assessmentController,
		Subscription: subscriptionController,
		Payment:      paymentController,
	})
}
