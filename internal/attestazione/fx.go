package attestazione

import "go.uber.org/fx"

var Module = fx.Module("attestazione",
	fx.Provide(NewPDFRenderer),
	fx.Provide(New),
)
