package subscription_fx

import (
	"cardiocheck/internal/services"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(services.NewSubscriptionService),
	fx.Invoke(subscribe),
)

func subscribe(s services.SubscriptionService, bus *services.EventBus) {
	s.Subscribe(bus)
}
