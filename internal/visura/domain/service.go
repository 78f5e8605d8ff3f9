package domain

import (
	"context"

	"gorm.io/gorm"

	"github.com/abruzzotech/attesta/internal/visura/extract"
)

// Ensured is the outcome of making one owner's visura available: the row,
// the tabular document, and whether the portal was hit.
type Ensured struct {
	Visura    *Visura
	Document  *extract.Document
	Refetched bool
	Reason    string
}

// Service guarantees a usable visura for the owner, fetching from the
// portal only when the freshness policy demands it.
type Service interface {
	Ensure(ctx context.Context, db *gorm.DB, locatoreCF string, forceUpdate bool) (*Ensured, error)
}
