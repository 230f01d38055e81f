package config_fx

import (
	"cardiocheck/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Provide(config.Load)
