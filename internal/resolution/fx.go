package resolution

import (
	"github.com/smallbiznis/checkmapper/internal/resolution/service"
	"go.uber.org/fx"
)

var Module = fx.Module("resolution.service",
	fx.Provide(service.New),
)
