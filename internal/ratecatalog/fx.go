package ratecatalog

import (
	"github.com/smallbiznis/lounge/internal/ratecatalog/repository"
	"github.com/smallbiznis/lounge/internal/ratecatalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ratecatalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
