package commission

import (
	"github.com/finovia/adfin/internal/commission/repository"
	"github.com/finovia/adfin/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
