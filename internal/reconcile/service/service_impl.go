// Package service implements the three-way reconciliation between fresh
// extraction records, operator instructions and stored state.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abruzzotech/attesta/internal/catasto/domain"
	"github.com/abruzzotech/attesta/internal/config"
	"github.com/abruzzotech/attesta/internal/metrics"
	reconciledomain "github.com/abruzzotech/attesta/internal/reconcile/domain"
	"github.com/abruzzotech/attesta/internal/visura/extract"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Repo    domain.Repository
	GenID   *snowflake.Node
	Metrics *metrics.Metrics
}

type service struct {
	log     *zap.Logger
	cfg     config.Config
	repo    domain.Repository
	genID   *snowflake.Node
	metrics *metrics.Metrics
}

func New(p Params) reconciledomain.Service {
	return &service{
		log:     p.Log.Named("reconcile.service"),
		cfg:     p.Config,
		repo:    p.Repo,
		genID:   p.GenID,
		metrics: p.Metrics,
	}
}

func (s *service) Reconcile(ctx context.Context, db *gorm.DB, ins reconciledomain.Instruction, visuraID *snowflake.ID, records []extract.Record) (*reconciledomain.Result, error) {
	if strings.TrimSpace(ins.LocatoreCF) == "" {
		return nil, domain.ErrMissingFiscalCode
	}

	if err := s.upsertLocatore(ctx, db, ins, records); err != nil {
		return nil, err
	}

	res := &reconciledomain.Result{}

	if len(records) > 0 {
		keepIDs, err := s.upsertCanonical(ctx, db, ins.LocatoreCF, visuraID, records)
		if err != nil {
			return nil, err
		}
		if s.cfg.PruneImmobiliWithoutContracts {
			pruned, err := s.repo.PruneImmobiliWithoutContracts(ctx, db, ins.LocatoreCF, keepIDs)
			if err != nil {
				return nil, fmt.Errorf("prune immobili: %w", err)
			}
			res.Pruned = pruned
		}
	}

	immobili, err := s.repo.ListImmobili(ctx, db, ins.LocatoreCF)
	if err != nil {
		return nil, fmt.Errorf("list immobili: %w", err)
	}
	res.Immobili = immobili

	if !ins.HasOverrides() {
		return res, nil
	}

	// Ambiguity guard: with several immobili and no selector it is not safe
	// to guess which one the operator meant. Skip every override rather
	// than apply them to the wrong property.
	if len(immobili) > 1 && !ins.HasSelector() {
		s.log.Warn("ambiguous instruction, overrides skipped",
			zap.String("locatore_cf", ins.LocatoreCF),
			zap.Int("immobili", len(immobili)),
		)
		s.metrics.InstructionSkipped.Inc()
		res.OverridesSkipped = true
		return res, nil
	}

	for _, imm := range immobili {
		if !ins.Matches(imm.Foglio, imm.Numero, imm.Sub, imm.Categoria) {
			continue
		}
		res.Targets = append(res.Targets, imm)

		if err := s.applyOverrides(ctx, db, ins, imm); err != nil {
			return nil, err
		}
		if err := s.applyElements(ctx, db, ins, imm.ID); err != nil {
			return nil, err
		}
		if err := s.applyContract(ctx, db, ins, imm.ID); err != nil {
			return nil, err
		}
	}

	if len(res.Targets) == 0 {
		s.log.Warn("instruction selectors matched no immobile",
			zap.String("locatore_cf", ins.LocatoreCF),
			zap.String("foglio", ins.Foglio),
			zap.String("numero", ins.Numero),
		)
	}

	return res, nil
}

// upsertLocatore writes the owner person row, preferring the name as it
// appears on the visura.
func (s *service) upsertLocatore(ctx context.Context, db *gorm.DB, ins reconciledomain.Instruction, records []extract.Record) error {
	person := &domain.Person{CF: ins.LocatoreCF}
	if len(records) > 0 {
		person.Surname = records[0].OwnerSurname
		person.Name = records[0].OwnerName
	}

	if ins.LocatoreVia.IsSet() {
		comune := ins.LocatoreComuneRes.Value()
		addrID, err := s.findOrCreateAddress(ctx, db, comune, ins.LocatoreVia.Value(), ins.LocatoreCivico.Value(), "", "")
		if err != nil {
			return fmt.Errorf("locatore residence: %w", err)
		}
		person.ResidenceAddressID = &addrID
	}

	if err := s.repo.UpsertPerson(ctx, db, person); err != nil {
		return fmt.Errorf("upsert locatore: %w", err)
	}
	return nil
}

// upsertCanonical replays the fresh extraction into immobili rows. Rows
// missing the natural key are skipped, not fatal.
func (s *service) upsertCanonical(ctx context.Context, db *gorm.DB, ownerCF string, visuraID *snowflake.ID, records []extract.Record) ([]snowflake.ID, error) {
	var keepIDs []snowflake.ID
	for _, rec := range records {
		imm := recordToImmobile(ownerCF, rec)
		imm.SourceVisuraID = visuraID

		if err := imm.ValidateNaturalKey(); err != nil {
			s.log.Warn("extraction record skipped",
				zap.String("owner_cf", ownerCF),
				zap.String("comune", rec.ComuneName),
				zap.Error(err),
			)
			continue
		}

		if rec.Address.Raw != "" {
			addrID, err := s.findOrCreateAddress(ctx, db,
				rec.ComuneName,
				rec.Address.Street(),
				rec.Address.CivicLabel(),
				rec.Address.Piano,
				rec.Address.Interno,
			)
			if err != nil {
				return nil, fmt.Errorf("visura address: %w", err)
			}
			imm.VisuraAddressID = &addrID
		}

		id, err := s.repo.UpsertImmobile(ctx, db, imm)
		if err != nil {
			return nil, fmt.Errorf("upsert immobile %s/%s: %w", imm.Foglio, imm.Numero, err)
		}
		keepIDs = append(keepIDs, id)
	}
	return keepIDs, nil
}

func (s *service) applyOverrides(ctx context.Context, db *gorm.DB, ins reconciledomain.Instruction, imm *domain.Immobile) error {
	var realAddressID *snowflake.ID
	clearReal := ins.ImmobileVia.IsClear()

	if ins.ImmobileVia.IsSet() {
		comune := ins.ImmobileComune.MergeString(imm.ComuneName)
		id, err := s.findOrCreateAddress(ctx, db,
			comune,
			ins.ImmobileVia.Value(),
			ins.ImmobileCivico.Value(),
			ins.ImmobilePiano.Value(),
			ins.ImmobileInterno.Value(),
		)
		if err != nil {
			return fmt.Errorf("real address: %w", err)
		}
		realAddressID = &id
	}

	var energy *string
	switch {
	case ins.EnergyClass.IsSet():
		v := strings.ToUpper(ins.EnergyClass.Value())
		energy = &v
	case ins.EnergyClass.IsClear():
		v := ""
		energy = &v
	}

	if realAddressID == nil && !clearReal && energy == nil {
		return nil
	}
	if err := s.repo.UpdateImmobileOverrides(ctx, db, imm.ID, realAddressID, clearReal, energy); err != nil {
		return fmt.Errorf("update overrides: %w", err)
	}
	if realAddressID != nil {
		imm.RealAddressID = realAddressID
	}
	if clearReal {
		imm.RealAddressID = nil
	}
	if energy != nil {
		imm.EnergyClass = *energy
	}
	return nil
}

func (s *service) applyElements(ctx context.Context, db *gorm.DB, ins reconciledomain.Instruction, immobileID snowflake.ID) error {
	for key, f := range ins.Elements {
		grp := strings.ToUpper(key[:1])
		code := strings.ToUpper(key)
		switch {
		case f.IsSet():
			if err := s.repo.SetElement(ctx, db, immobileID, grp, code, f.Value()); err != nil {
				return fmt.Errorf("set element %s: %w", code, err)
			}
		case f.IsClear():
			if err := s.repo.ClearElement(ctx, db, immobileID, grp, code); err != nil {
				return fmt.Errorf("clear element %s: %w", code, err)
			}
		}
	}
	return nil
}

// applyContract updates the latest contract in place, or starts a new one
// when forced or when none exists yet. Without any contract opinion the
// stored row is left untouched.
func (s *service) applyContract(ctx context.Context, db *gorm.DB, ins reconciledomain.Instruction, immobileID snowflake.ID) error {
	if !hasContractOpinion(ins) {
		return nil
	}

	if err := s.upsertConduttore(ctx, db, ins); err != nil {
		return err
	}

	stored, err := s.repo.LatestContract(ctx, db, immobileID)
	if err != nil {
		return fmt.Errorf("latest contract: %w", err)
	}

	fresh := stored == nil || ins.ForceNewContract
	contract := stored
	if fresh {
		contract = &domain.Contract{
			ID:           s.genID.Generate(),
			ImmobileID:   immobileID,
			ContractKind: domain.KindConcordato,
			DurataAnni:   3,
		}
	}

	contract.ConduttoreCF = ins.ConduttoreCF.MergeString(contract.ConduttoreCF)
	contract.ArredatoPct = ins.ArredatoPct.MergeFloat(contract.ArredatoPct)
	contract.IstatRate = ins.IstatRate.MergeFloat(contract.IstatRate)
	contract.DurataAnni = ins.DurataAnni.MergeInt(contract.DurataAnni, 3)
	contract.IgnoreSurcharges = ins.IgnoreSurcharges.MergeBool(contract.IgnoreSurcharges)

	if kind := ins.ContractKind.MergeString(contract.ContractKind); kind != "" {
		contract.ContractKind = strings.ToUpper(kind)
	} else {
		contract.ContractKind = domain.KindConcordato
	}

	switch {
	case ins.ContractDate.IsSet():
		if t, ok := reconciledomain.ParseDate(ins.ContractDate.Value()); ok {
			contract.StartDate = &t
		} else {
			s.log.Warn("unparseable contract date kept stored value",
				zap.String("value", ins.ContractDate.Value()))
		}
	case ins.ContractDate.IsClear():
		contract.StartDate = nil
	}

	switch {
	case ins.CanoneMensile.IsSet():
		if v, err := strconv.ParseFloat(strings.ReplaceAll(ins.CanoneMensile.Value(), ",", "."), 64); err == nil {
			contract.CanoneContrattualeMensile = &v
		}
	case ins.CanoneMensile.IsClear():
		contract.CanoneContrattualeMensile = nil
	}

	if fresh {
		if err := s.repo.InsertContract(ctx, db, contract); err != nil {
			return fmt.Errorf("insert contract: %w", err)
		}
		return nil
	}
	if err := s.repo.UpdateContract(ctx, db, contract); err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	return nil
}

func (s *service) upsertConduttore(ctx context.Context, db *gorm.DB, ins reconciledomain.Instruction) error {
	if !ins.ConduttoreCF.IsSet() {
		return nil
	}
	person := &domain.Person{CF: strings.ToUpper(ins.ConduttoreCF.Value())}
	if ins.ConduttoreNome.IsSet() {
		person.Surname, person.Name = splitFullName(ins.ConduttoreNome.Value())
	}
	if ins.ConduttoreVia.IsSet() {
		addrID, err := s.findOrCreateAddress(ctx, db, ins.ConduttoreComune.Value(), ins.ConduttoreVia.Value(), "", "", "")
		if err != nil {
			return fmt.Errorf("conduttore residence: %w", err)
		}
		person.ResidenceAddressID = &addrID
	}
	if err := s.repo.UpsertPerson(ctx, db, person); err != nil {
		return fmt.Errorf("upsert conduttore: %w", err)
	}
	return nil
}

func (s *service) findOrCreateAddress(ctx context.Context, db *gorm.DB, comune, via, civico, piano, interno string) (snowflake.ID, error) {
	addr := &domain.Address{
		Comune:  strings.ToUpper(strings.TrimSpace(comune)),
		ViaFull: strings.ToUpper(strings.TrimSpace(via)),
		Civico:  strings.ToUpper(strings.TrimSpace(civico)),
		Piano:   strings.TrimSpace(piano),
		Interno: strings.TrimSpace(interno),
	}
	return s.repo.FindOrCreateAddress(ctx, db, addr)
}

func hasContractOpinion(ins reconciledomain.Instruction) bool {
	if ins.ForceNewContract {
		return true
	}
	for _, f := range []reconciledomain.Field{
		ins.ContractKind, ins.ContractDate, ins.DurataAnni,
		ins.ArredatoPct, ins.IstatRate, ins.IgnoreSurcharges,
		ins.CanoneMensile, ins.ConduttoreCF,
	} {
		if !f.IsUnset() {
			return true
		}
	}
	return false
}

func recordToImmobile(ownerCF string, rec extract.Record) *domain.Immobile {
	get := func(key string) string { return strings.TrimSpace(rec.Fields[key]) }
	return &domain.Immobile{
		OwnerCF: strings.ToUpper(strings.TrimSpace(ownerCF)),
		Foglio:  get("foglio"),
		Numero:  get("numero"),
		Sub:     get("sub"),

		SezUrbana:   get("sez_urbana"),
		ZonaCens:    get("zona_cens"),
		MicroZona:   get("micro_zona"),
		Categoria:   get("categoria"),
		Classe:      get("classe"),
		Consistenza: get("consistenza"),
		Rendita:     rec.Rendita,

		SuperficieTotale:  rec.SuperficieTotale,
		SuperficieEscluse: rec.SuperficieEscluse,
		SuperficieRaw:     rec.SuperficieRaw,

		ComuneName: rec.ComuneName,
		ComuneCode: rec.ComuneCode,
	}
}

func splitFullName(full string) (surname, name string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
