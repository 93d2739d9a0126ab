package check

import (
	"github.com/smallbiznis/checkmapper/internal/check/repository"
	"github.com/smallbiznis/checkmapper/internal/check/service"
	"go.uber.org/fx"
)

var Module = fx.Module("check.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
