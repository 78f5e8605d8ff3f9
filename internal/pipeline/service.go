// Package pipeline drives the per-owner unit of work: ensure the visura,
// extract, reconcile, compute the canone and generate attestazioni, all
// inside one transaction per owner.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abruzzotech/attesta/internal/attestazione"
	auditdomain "github.com/abruzzotech/attesta/internal/audit/domain"
	canonedomain "github.com/abruzzotech/attesta/internal/canone/domain"
	"github.com/abruzzotech/attesta/internal/canone/engine"
	catastodomain "github.com/abruzzotech/attesta/internal/catasto/domain"
	"github.com/abruzzotech/attesta/internal/metrics"
	reconciledomain "github.com/abruzzotech/attesta/internal/reconcile/domain"
	visuradomain "github.com/abruzzotech/attesta/internal/visura/domain"
	"github.com/abruzzotech/attesta/internal/visura/extract"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Visure       visuradomain.Service
	Extractor    *extract.Extractor
	Reconciler   reconciledomain.Service
	Engine       *engine.Engine
	Repo         catastodomain.Repository
	Audit        auditdomain.Service
	Attestazioni attestazione.Generator
	Metrics      *metrics.Metrics
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	visure       visuradomain.Service
	extractor    *extract.Extractor
	reconciler   reconciledomain.Service
	engine       *engine.Engine
	repo         catastodomain.Repository
	audit        auditdomain.Service
	attestazioni attestazione.Generator
	metrics      *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("pipeline.service"),
		visure:       p.Visure,
		extractor:    p.Extractor,
		reconciler:   p.Reconciler,
		engine:       p.Engine,
		repo:         p.Repo,
		audit:        p.Audit,
		attestazioni: p.Attestazioni,
		metrics:      p.Metrics,
	}
}

// Summary is the batch outcome.
type Summary struct {
	RunID     string
	Processed int
	Failed    int
}

// Run processes every instruction. A failing owner is logged and counted;
// the batch moves on.
func (s *Service) Run(ctx context.Context, instructions []reconciledomain.Instruction) Summary {
	summary := Summary{RunID: uuid.NewString()}
	log := s.log.With(zap.String("run_id", summary.RunID))
	log.Info("batch started", zap.Int("owners", len(instructions)))

	for _, ins := range instructions {
		if err := s.ProcessOwner(ctx, ins); err != nil {
			summary.Failed++
			s.metrics.OwnersProcessed.WithLabelValues("failed").Inc()
			log.Error("owner failed",
				zap.String("locatore_cf", ins.LocatoreCF),
				zap.Error(err),
			)
			continue
		}
		summary.Processed++
		s.metrics.OwnersProcessed.WithLabelValues("ok").Inc()
	}

	log.Info("batch finished",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
	)
	return summary
}

// ProcessOwner runs one owner end to end in a single transaction. Canone
// classification failures are audited and skipped per property; everything
// else rolls the owner back.
func (s *Service) ProcessOwner(ctx context.Context, ins reconciledomain.Instruction) error {
	if strings.TrimSpace(ins.LocatoreCF) == "" {
		return catastodomain.ErrMissingFiscalCode
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		ensured, err := s.visure.Ensure(ctx, tx, ins.LocatoreCF, ins.ForceUpdate)
		if err != nil {
			return err
		}

		records := s.extractor.Extract(ensured.Document)
		visuraID := ensured.Visura.ID

		res, err := s.reconciler.Reconcile(ctx, tx, ins, &visuraID, records)
		if err != nil {
			return err
		}

		for _, imm := range res.Immobili {
			if !ins.Matches(imm.Foglio, imm.Numero, imm.Sub, imm.Categoria) {
				continue
			}
			if err := s.processImmobile(ctx, tx, ins, imm); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) processImmobile(ctx context.Context, tx *gorm.DB, ins reconciledomain.Instruction, imm *catastodomain.Immobile) error {
	contract, err := s.repo.LatestContract(ctx, tx, imm.ID)
	if err != nil {
		return fmt.Errorf("latest contract: %w", err)
	}
	elements, err := s.repo.ListElements(ctx, tx, imm.ID)
	if err != nil {
		return fmt.Errorf("list elements: %w", err)
	}

	input := buildInput(imm, contract, elements)

	calc := &auditdomain.CanoneCalculation{
		OwnerCF:    imm.OwnerCF,
		ImmobileID: imm.ID,
	}
	if contract != nil {
		calc.ContractID = &contract.ID
	}
	if snapshot, merr := json.Marshal(input); merr == nil {
		calc.Input = snapshot
	}

	result, err := s.engine.Compute(input)
	if err != nil {
		calc.Outcome = outcomeFor(err)
		calc.Error = err.Error()
		s.metrics.Calculations.WithLabelValues(calc.Outcome).Inc()
		s.log.Warn("canone computation skipped",
			zap.String("owner_cf", imm.OwnerCF),
			zap.String("foglio", imm.Foglio),
			zap.String("numero", imm.Numero),
			zap.Error(err),
		)
		return s.audit.RecordCalculation(ctx, tx, calc)
	}

	calc.Outcome = auditdomain.OutcomeOK
	calc.CanoneMensile = result.FinaleMensile
	if snapshot, merr := json.Marshal(result); merr == nil {
		calc.Result = snapshot
	}
	s.metrics.Calculations.WithLabelValues(auditdomain.OutcomeOK).Inc()
	if err := s.audit.RecordCalculation(ctx, tx, calc); err != nil {
		return fmt.Errorf("audit calculation: %w", err)
	}

	data, err := s.attestazioneData(ctx, tx, imm, contract, elements, input, result)
	if err != nil {
		return err
	}
	if _, _, err := s.attestazioni.Generate(ctx, tx, data); err != nil {
		return err
	}
	return nil
}

func (s *Service) attestazioneData(
	ctx context.Context,
	tx *gorm.DB,
	imm *catastodomain.Immobile,
	contract *catastodomain.Contract,
	elements []*catastodomain.ImmobileElement,
	input canonedomain.Input,
	result *canonedomain.Result,
) (attestazione.Data, error) {
	data := attestazione.Data{
		Immobile: imm,
		Elements: elements,
		Contract: contract,
		Input:    input,
		Result:   result,
	}

	locatore, err := s.repo.FindPerson(ctx, tx, imm.OwnerCF)
	if err != nil {
		return data, fmt.Errorf("find locatore: %w", err)
	}
	data.Locatore = locatore
	if locatore != nil && locatore.ResidenceAddressID != nil {
		if data.LocatoreResidence, err = s.repo.FindAddress(ctx, tx, *locatore.ResidenceAddressID); err != nil {
			return data, err
		}
	}

	addressID := imm.VisuraAddressID
	if imm.RealAddressID != nil {
		addressID = imm.RealAddressID
	}
	if addressID != nil {
		if data.Address, err = s.repo.FindAddress(ctx, tx, *addressID); err != nil {
			return data, err
		}
	}

	if contract != nil && contract.ConduttoreCF != "" {
		conduttore, err := s.repo.FindPerson(ctx, tx, contract.ConduttoreCF)
		if err != nil {
			return data, fmt.Errorf("find conduttore: %w", err)
		}
		data.Conduttore = conduttore
		if conduttore != nil && conduttore.ResidenceAddressID != nil {
			if data.ConduttoreResidence, err = s.repo.FindAddress(ctx, tx, *conduttore.ResidenceAddressID); err != nil {
				return data, err
			}
		}
	}

	return data, nil
}

// buildInput assembles the calculation input from the reconciled state.
// Contract defaults apply when no contract exists yet.
func buildInput(imm *catastodomain.Immobile, contract *catastodomain.Contract, elements []*catastodomain.ImmobileElement) canonedomain.Input {
	input := canonedomain.Input{
		MicroZona:    imm.MicroZona,
		Foglio:       imm.Foglio,
		Categoria:    imm.Categoria,
		Classe:       imm.Classe,
		EnergyClass:  imm.EnergyClass,
		ContractKind: canonedomain.KindConcordato,
		DurataAnni:   3,
	}
	if imm.SuperficieTotale != nil {
		input.Superficie = *imm.SuperficieTotale
	}

	for _, el := range elements {
		switch strings.ToUpper(el.Grp) {
		case "A":
			input.CountA++
		case "B":
			input.CountB++
		case "C":
			input.CountC++
		case "D":
			input.CountD++
		}
	}

	if contract != nil {
		input.ContractKind = contract.ContractKind
		input.DurataAnni = contract.DurataAnni
		input.ArredatoPct = contract.ArredatoPct
		input.IstatRate = contract.IstatRate
		input.IgnoreSurcharges = contract.IgnoreSurcharges
		input.AgreedMensile = contract.CanoneContrattualeMensile
	}
	return input
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, canonedomain.ErrValidation):
		return auditdomain.OutcomeValidationError
	case errors.Is(err, canonedomain.ErrClassification):
		return auditdomain.OutcomeClassificationError
	default:
		return auditdomain.OutcomeClassificationError
	}
}
