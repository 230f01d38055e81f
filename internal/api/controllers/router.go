package controllers

import (
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/middleware"
	"cardiocheck/pkg/utils"
	"github.com/gin-gonic/gin"
	"net/http"
	"time"
)

type RouterConfig struct {
	JWTSecret []byte
	Now       func() time.Time
	Logger    *logger.Logger

	Account      *AccountController
	Assessment   *AssessmentController
	Subscription *SubscriptionController
	Payment      *PaymentController
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Now == nil {
		cfg.Now = utils.NowUTC
	}
	utils.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, cfg)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	api := r.Group("/api")

	// public
	authGroup := api.Group("/auth")
	authGroup.POST("/login", cfg.Account.Login)
	authGroup.POST("/refresh", cfg.Account.Refresh)

	// protected
	protected := api.Group("/", middleware.JWTAuthMiddleware(cfg.JWTSecret, cfg.Now))
	protected.POST("/auth/logout", cfg.Account.Logout)

	protected.POST("/checks", cfg.Assessment.CreateCheck)
	protected.POST("/predictions", cfg.Assessment.Predict)
	protected.GET("/predictions/user/:userId", middleware.SameUserMiddleware(), cfg.Assessment.ListPredictions)

	subs := protected.Group("/subscriptions")
	subs.GET("/plans", cfg.Subscription.ListPlans)
	subs.GET("/user/:userId", middleware.SameUserMiddleware(), cfg.Subscription.GetUserSubscription)
	subs.POST("", cfg.Subscription.CreateSubscription)
	subs.PUT("/:id/cancel", cfg.Subscription.CancelSubscription)

	payments := protected.Group("/payments")
	payments.POST("", cfg.Payment.CreatePayment)
	payments.PUT("/:id/complete", cfg.Payment.CompletePayment)
	payments.PUT("/:id/fail", cfg.Payment.FailPayment)
	payments.PUT("/:id/cancel", cfg.Payment.CancelPayment)
	payments.PUT("/:id/refund", cfg.Payment.RefundPayment)
	payments.GET("/user/:userId", middleware.SameUserMiddleware(), cfg.Payment.ListPayments)

	methods := protected.Group("/payment-methods")
	methods.GET("/user/:userId", middleware.SameUserMiddleware(), cfg.Payment.ListPaymentMethods)
	methods.POST("", cfg.Payment.AddPaymentMethod)
	methods.DELETE("/:id", cfg.Payment.DeletePaymentMethod)
	methods.PUT("/:id/default", cfg.Payment.SetDefaultPaymentMethod)
}
