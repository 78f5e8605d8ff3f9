package audit

import (
	"go.uber.org/fx"

	"github.com/abruzzotech/attesta/internal/audit/service"
)

var Module = fx.Module("audit",
	fx.Provide(service.New),
)
