// Package portal is the acquisition boundary. How visure are obtained from
// the cadastral portal is not this system's concern; implementations only
// have to hand over the PDF bytes and their tabular content.
package portal

import (
	"context"

	"github.com/abruzzotech/attesta/internal/visura/extract"
)

// FetchResult is one downloaded visura.
type FetchResult struct {
	PDF      []byte
	Document *extract.Document
}

type Portal interface {
	FetchVisura(ctx context.Context, locatoreCF string) (*FetchResult, error)
}
