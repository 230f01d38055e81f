package payment_service_fx

import (
	"cardiocheck/internal/services"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	services.NewPaymentService,
)
