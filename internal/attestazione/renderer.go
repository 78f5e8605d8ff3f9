package attestazione

import "context"

// Renderer turns the parameter map into document bytes. The map always
// carries the full key set, so renderers never have to nil-check.
type Renderer interface {
	Render(ctx context.Context, params map[string]string) ([]byte, error)
}
