package assessment_fx

import (
	"cardiocheck/internal/services"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	services.NewEventBus,
	services.NewAssessmentService,
)
