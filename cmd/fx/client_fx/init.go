package client_fx

import (
	"cardiocheck/internal/api/client"
	"cardiocheck/internal/config"
	"cardiocheck/internal/services"
	"cardiocheck/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		provideTransport,
		client.NewCredentials,
		client.NewRefresher,
		client.NewPipeline,
		client.NewAPI,
	),
	fx.Provide(
		func(api *client.API) services.AuthAPI { return api },
		func(api *client.API) services.AssessmentAPI { return api },
		func(api *client.API) services.SubscriptionAPI { return api },
		func(api *client.API) services.PaymentAPI { return api },
		func(r *client.Refresher) services.SessionRefresher { return r },
	),
)

func provideTransport(cfg config.Config, log *logger.Logger) (*client.Transport, error) {
	return client.NewTransport(client.TransportOptions{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		Logger:  log,
	})
}
