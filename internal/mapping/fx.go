package mapping

import (
	"github.com/smallbiznis/checkmapper/internal/mapping/repository"
	"github.com/smallbiznis/checkmapper/internal/mapping/service"
	"github.com/smallbiznis/checkmapper/internal/mapping/sheet"
	"go.uber.org/fx"
)

var Module = fx.Module("mapping.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(sheet.New),
)
