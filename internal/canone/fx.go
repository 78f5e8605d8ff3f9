package canone

import (
	"go.uber.org/fx"

	"github.com/abruzzotech/attesta/internal/canone/engine"
)

var Module = fx.Module("canone",
	fx.Provide(engine.New),
)
