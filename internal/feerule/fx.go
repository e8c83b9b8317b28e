package feerule

import (
	"context"

	"github.com/finovia/adfin/internal/feerule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feerule.service",
	fx.Provide(service.NewService),
	fx.Invoke(func(p service.SeedParams) error {
		return service.SeedDefaults(context.Background(), p)
	}),
)
