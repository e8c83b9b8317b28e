package adaccount

import (
	"github.com/finovia/adfin/internal/adaccount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adaccount.service",
	fx.Provide(service.NewService),
)
