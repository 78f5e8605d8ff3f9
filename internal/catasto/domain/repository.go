package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the transactional persistence surface for the cadastral
// entities. Every method takes the gorm handle explicitly so callers can
// run a whole owner inside one transaction.
type Repository interface {
	// FindOrCreateAddress deduplicates by content hash and returns the id.
	FindOrCreateAddress(ctx context.Context, db *gorm.DB, addr *Address) (snowflake.ID, error)
	FindAddress(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Address, error)

	// UpsertPerson creates or patches a person; empty incoming fields never
	// overwrite stored ones.
	UpsertPerson(ctx context.Context, db *gorm.DB, person *Person) error
	FindPerson(ctx context.Context, db *gorm.DB, cf string) (*Person, error)

	// UpsertImmobile writes canonical cadastral master data keyed by the
	// natural key, leaving override fields untouched. Returns the row id.
	UpsertImmobile(ctx context.Context, db *gorm.DB, imm *Immobile) (snowflake.ID, error)
	ListImmobili(ctx context.Context, db *gorm.DB, ownerCF string) ([]*Immobile, error)
	UpdateImmobileOverrides(ctx context.Context, db *gorm.DB, id snowflake.ID, realAddressID *snowflake.ID, clearRealAddress bool, energyClass *string) error
	// PruneImmobiliWithoutContracts deletes immobili for the owner that are
	// not in keepIDs and have no contracts. Returns the number deleted.
	PruneImmobiliWithoutContracts(ctx context.Context, db *gorm.DB, ownerCF string, keepIDs []snowflake.ID) (int64, error)

	SetElement(ctx context.Context, db *gorm.DB, immobileID snowflake.ID, grp, code, value string) error
	ClearElement(ctx context.Context, db *gorm.DB, immobileID snowflake.ID, grp, code string) error
	ListElements(ctx context.Context, db *gorm.DB, immobileID snowflake.ID) ([]*ImmobileElement, error)

	LatestContract(ctx context.Context, db *gorm.DB, immobileID snowflake.ID) (*Contract, error)
	InsertContract(ctx context.Context, db *gorm.DB, contract *Contract) error
	UpdateContract(ctx context.Context, db *gorm.DB, contract *Contract) error
	CountContracts(ctx context.Context, db *gorm.DB, immobileID snowflake.ID) (int64, error)
}
