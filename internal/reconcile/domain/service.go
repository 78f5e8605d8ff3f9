package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	catastodomain "github.com/abruzzotech/attesta/internal/catasto/domain"
	"github.com/abruzzotech/attesta/internal/visura/extract"
)

// Result summarizes one owner's reconciliation.
type Result struct {
	// Immobili is the owner's full set after canonical upsert and pruning.
	Immobili []*catastodomain.Immobile
	// Targets are the immobili the instruction selectors matched; overrides,
	// elements and contract changes were applied to these.
	Targets []*catastodomain.Immobile
	// Pruned counts immobili deleted because they vanished from the visura.
	Pruned int64
	// OverridesSkipped is set when the ambiguity guard fired: several
	// immobili, no selector, and the instruction carried overrides.
	OverridesSkipped bool
}

// Service reconciles one owner: fresh extraction records become canonical
// rows, then operator overrides are layered on top. The caller supplies the
// gorm handle so the whole owner runs inside a single transaction.
type Service interface {
	Reconcile(ctx context.Context, db *gorm.DB, ins Instruction, visuraID *snowflake.ID, records []extract.Record) (*Result, error)
}
