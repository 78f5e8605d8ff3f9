package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/abruzzotech/attesta/internal/catasto/domain"
	pkgdb "github.com/abruzzotech/attesta/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type repo struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func Provide(p Params) domain.Repository {
	return &repo{
		log:   p.Log.Named("catasto.repository"),
		genID: p.GenID,
	}
}

func (r *repo) FindOrCreateAddress(ctx context.Context, db *gorm.DB, addr *domain.Address) (snowflake.ID, error) {
	addr.ContentHash = addr.Hash()
	if strings.TrimSpace(addr.Civico) == "" {
		addr.Civico = "SNC"
	}

	var existing domain.Address
	err := db.WithContext(ctx).Where("content_hash = ?", addr.ContentHash).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	addr.ID = r.genID.Generate()
	if err := db.WithContext(ctx).Create(addr).Error; err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			if reErr := db.WithContext(ctx).Where("content_hash = ?", addr.ContentHash).First(&existing).Error; reErr == nil {
				return existing.ID, nil
			}
		}
		return 0, err
	}
	return addr.ID, nil
}

func (r *repo) FindAddress(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Address, error) {
	var addr domain.Address
	err := db.WithContext(ctx).First(&addr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *repo) UpsertPerson(ctx context.Context, db *gorm.DB, person *domain.Person) error {
	if strings.TrimSpace(person.CF) == "" {
		return domain.ErrMissingFiscalCode
	}

	var existing domain.Person
	err := db.WithContext(ctx).Where("cf = ?", person.CF).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.WithContext(ctx).Create(person).Error
	}
	if err != nil {
		return err
	}

	// Incoming empty fields never clobber stored values.
	if person.Surname != "" {
		existing.Surname = person.Surname
	}
	if person.Name != "" {
		existing.Name = person.Name
	}
	if person.ResidenceAddressID != nil {
		existing.ResidenceAddressID = person.ResidenceAddressID
	}
	return db.WithContext(ctx).Save(&existing).Error
}

func (r *repo) FindPerson(ctx context.Context, db *gorm.DB, cf string) (*domain.Person, error) {
	var person domain.Person
	err := db.WithContext(ctx).Where("cf = ?", cf).First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *repo) UpsertImmobile(ctx context.Context, db *gorm.DB, imm *domain.Immobile) (snowflake.ID, error) {
	if err := imm.ValidateNaturalKey(); err != nil {
		return 0, err
	}

	var existing domain.Immobile
	err := db.WithContext(ctx).
		Where("owner_cf = ? AND foglio = ? AND numero = ? AND sub = ?",
			imm.OwnerCF, imm.Foglio, imm.Numero, imm.Sub).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		imm.ID = r.genID.Generate()
		if err := db.WithContext(ctx).Create(imm).Error; err != nil {
			return 0, err
		}
		return imm.ID, nil
	}
	if err != nil {
		return 0, err
	}

	// Canonical master data is re-derived from the fresh extraction; the
	// override fields (real_address_id, energy_class) are left alone.
	updates := map[string]any{
		"sez_urbana":         imm.SezUrbana,
		"zona_cens":          imm.ZonaCens,
		"micro_zona":         imm.MicroZona,
		"categoria":          imm.Categoria,
		"classe":             imm.Classe,
		"consistenza":        imm.Consistenza,
		"rendita":            imm.Rendita,
		"superficie_totale":  imm.SuperficieTotale,
		"superficie_escluse": imm.SuperficieEscluse,
		"superficie_raw":     imm.SuperficieRaw,
		"comune_name":        imm.ComuneName,
		"comune_code":        imm.ComuneCode,
	}
	if imm.VisuraAddressID != nil {
		updates["visura_address_id"] = imm.VisuraAddressID
	}
	if imm.SourceVisuraID != nil {
		updates["source_visura_id"] = imm.SourceVisuraID
	}

	if err := db.WithContext(ctx).Model(&domain.Immobile{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func (r *repo) ListImmobili(ctx context.Context, db *gorm.DB, ownerCF string) ([]*domain.Immobile, error) {
	var immobili []*domain.Immobile
	err := db.WithContext(ctx).
		Where("owner_cf = ?", ownerCF).
		Order("foglio, numero, sub").
		Find(&immobili).Error
	if err != nil {
		return nil, err
	}
	return immobili, nil
}

func (r *repo) UpdateImmobileOverrides(
	ctx context.Context,
	db *gorm.DB,
	id snowflake.ID,
	realAddressID *snowflake.ID,
	clearRealAddress bool,
	energyClass *string,
) error {
	updates := map[string]any{}
	if clearRealAddress {
		updates["real_address_id"] = nil
	} else if realAddressID != nil {
		updates["real_address_id"] = *realAddressID
	}
	if energyClass != nil {
		if *energyClass == "" {
			updates["energy_class"] = ""
		} else {
			updates["energy_class"] = strings.ToUpper(*energyClass)
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.Immobile{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repo) PruneImmobiliWithoutContracts(ctx context.Context, db *gorm.DB, ownerCF string, keepIDs []snowflake.ID) (int64, error) {
	if len(keepIDs) == 0 {
		return 0, nil
	}

	res := db.WithContext(ctx).
		Where("owner_cf = ?", ownerCF).
		Where("id NOT IN ?", keepIDs).
		Where("NOT EXISTS (SELECT 1 FROM contracts c WHERE c.immobile_id = immobili.id)").
		Delete(&domain.Immobile{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.log.Info("pruned immobili without contracts",
			zap.String("owner_cf", ownerCF),
			zap.Int64("deleted", res.RowsAffected),
		)
	}
	return res.RowsAffected, nil
}

func (r *repo) SetElement(ctx context.Context, db *gorm.DB, immobileID snowflake.ID, grp, code, value string) error {
	element := domain.ImmobileElement{
		ImmobileID: immobileID,
		Grp:        grp,
		Code:       code,
		Value:      value,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "immobile_id"}, {Name: "grp"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&element).Error
}

func (r *repo) ClearElement(ctx context.Context, db *gorm.DB, immobileID snowflake.ID, grp, code string) error {
	return db.WithContext(ctx).
		Where("immobile_id = ? AND grp = ? AND code = ?", immobileID, grp, code).
		Delete(&domain.ImmobileElement{}).Error
}

func (r *repo) ListElements(ctx context.Context, db *gorm.DB, immobileID snowflake.ID) ([]*domain.ImmobileElement, error) {
	var elements []*domain.ImmobileElement
	err := db.WithContext(ctx).
		Where("immobile_id = ?", immobileID).
		Order("grp, code").
		Find(&elements).Error
	if err != nil {
		return nil, err
	}
	return elements, nil
}

func (r *repo) LatestContract(ctx context.Context, db *gorm.DB, immobileID snowflake.ID) (*domain.Contract, error) {
	var contract domain.Contract
	err := db.WithContext(ctx).
		Where("immobile_id = ?", immobileID).
		Order("created_at desc, id desc").
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *repo) InsertContract(ctx context.Context, db *gorm.DB, contract *domain.Contract) error {
	return db.WithContext(ctx).Create(contract).Error
}

func (r *repo) UpdateContract(ctx context.Context, db *gorm.DB, contract *domain.Contract) error {
	return db.WithContext(ctx).Save(contract).Error
}

func (r *repo) CountContracts(ctx context.Context, db *gorm.DB, immobileID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Contract{}).
		Where("immobile_id = ?", immobileID).
		Count(&count).Error
	return count, err
}
