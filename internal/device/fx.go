package device

import (
	"github.com/smallbiznis/lounge/internal/device/repository"
	"github.com/smallbiznis/lounge/internal/device/service"
	"go.uber.org/fx"
)

var Module = fx.Module("device.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
