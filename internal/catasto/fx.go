package catasto

import (
	"github.com/abruzzotech/attesta/internal/catasto/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("catasto",
	fx.Provide(repository.Provide),
)
