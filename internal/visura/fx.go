package visura

import (
	"go.uber.org/fx"

	"github.com/abruzzotech/attesta/internal/visura/extract"
	"github.com/abruzzotech/attesta/internal/visura/service"
)

var Module = fx.Module("visura",
	fx.Provide(extract.New),
	fx.Provide(service.New),
)
