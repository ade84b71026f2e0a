package segment

import (
	"github.com/smallbiznis/lounge/internal/segment/repository"
	"github.com/smallbiznis/lounge/internal/segment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("segment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
