package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abruzzotech/attesta/internal/attestazione"
	auditdomain "github.com/abruzzotech/attesta/internal/audit/domain"
	auditservice "github.com/abruzzotech/attesta/internal/audit/service"
	"github.com/abruzzotech/attesta/internal/canone/engine"
	catastodomain "github.com/abruzzotech/attesta/internal/catasto/domain"
	"github.com/abruzzotech/attesta/internal/catasto/repository"
	"github.com/abruzzotech/attesta/internal/clock"
	"github.com/abruzzotech/attesta/internal/config"
	"github.com/abruzzotech/attesta/internal/metrics"
	"github.com/abruzzotech/attesta/internal/portal"
	reconciledomain "github.com/abruzzotech/attesta/internal/reconcile/domain"
	reconcileservice "github.com/abruzzotech/attesta/internal/reconcile/service"
	"github.com/abruzzotech/attesta/internal/storage"
	visuradomain "github.com/abruzzotech/attesta/internal/visura/domain"
	"github.com/abruzzotech/attesta/internal/visura/extract"
	visuraservice "github.com/abruzzotech/attesta/internal/visura/service"
)

const (
	goodCF = "RSSMRA80A01G482X"
	badCF  = "VRDLGI85B02G482Y"
)

type mapPortal struct {
	docs map[string]*extract.Document
}

func (p *mapPortal) FetchVisura(_ context.Context, cf string) (*portal.FetchResult, error) {
	doc, ok := p.docs[cf]
	if !ok {
		return nil, fmt.Errorf("no visura for %s", cf)
	}
	return &portal.FetchResult{PDF: []byte("%PDF-1.4 " + cf), Document: doc}, nil
}

type okRenderer struct{}

func (okRenderer) Render(_ context.Context, _ map[string]string) ([]byte, error) {
	return []byte("%PDF-1.4 attestazione"), nil
}

func instructionFor(cf string, extra map[string]string) reconciledomain.Instruction {
	raw := map[string]string{"LOCATORE_CF": cf}
	for k, v := range extra {
		raw[k] = v
	}
	return reconciledomain.Parse(raw)
}

func sampleDocument(cf, microZona string) *extract.Document {
	return &extract.Document{Pages: []extract.Page{{
		Text: "ROSSI Mario (CF: " + cf + ")\n" +
			"Immobili siti nel Comune di PESCARA (Codice G482)",
		Tables: []extract.Table{{
			{"Foglio", "Numero", "Sub", "Categoria", "Classe", "Superficie Catastale", "Micro Zona", "Indirizzo", "Rendita"},
			{"13", "100", "5", "A/2", "2", "Totale: 80,00", microZona, "VIALE DELLA RIVIERA n. 285 Piano 1", "Euro 516,46"},
		}},
	}}}
}

func setupPipeline(t *testing.T, docs map[string]*extract.Document) (*Service, *gorm.DB, *storage.Memory) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&visuradomain.Visura{},
		&catastodomain.Address{},
		&catastodomain.Person{},
		&catastodomain.Immobile{},
		&catastodomain.ImmobileElement{},
		&catastodomain.Contract{},
		&auditdomain.CanoneCalculation{},
		&auditdomain.AttestazioneLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	blobs := storage.NewMemory()
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	cfg := config.Config{
		VisureBucket:       "visure",
		AttestazioniBucket: "attestazioni",
		RetryAttempts:      1,
	}

	repo := repository.Provide(repository.Params{Log: logger, GenID: node})
	audit := auditservice.New(auditservice.Params{Log: logger, GenID: node})

	svc := New(Params{
		DB:        db,
		Log:       logger,
		Extractor: extract.New(logger),
		Visure: visuraservice.New(visuraservice.Params{
			Log:     logger,
			Config:  cfg,
			Blobs:   blobs,
			Portal:  &mapPortal{docs: docs},
			GenID:   node,
			Clock:   fc,
			Metrics: m,
		}),
		Reconciler: reconcileservice.New(reconcileservice.Params{
			Log:     logger,
			Config:  cfg,
			Repo:    repo,
			GenID:   node,
			Metrics: m,
		}),
		Engine: engine.New(engine.Params{Log: logger}),
		Repo:   repo,
		Audit:  audit,
		Attestazioni: attestazione.New(attestazione.Params{
			Log:      logger,
			Config:   cfg,
			Blobs:    blobs,
			Renderer: okRenderer{},
			Audit:    audit,
			Metrics:  m,
		}),
		Metrics: m,
	})
	return svc, db, blobs
}

func TestProcessOwnerEndToEnd(t *testing.T) {
	svc, db, blobs := setupPipeline(t, map[string]*extract.Document{
		goodCF: sampleDocument(goodCF, "1"),
	})
	ctx := context.Background()

	ins := instructionFor(goodCF, map[string]string{
		"CONDUTTORE_CF": badCF,
		"ARREDATO":      "0,15",
		"A1":            "si",
	})
	require.NoError(t, svc.ProcessOwner(ctx, ins))

	var visura visuradomain.Visura
	require.NoError(t, db.First(&visura, "locatore_cf = ?", goodCF).Error)
	assert.NotEmpty(t, visura.ChecksumSHA256)

	var imm catastodomain.Immobile
	require.NoError(t, db.First(&imm, "owner_cf = ?", goodCF).Error)
	assert.Equal(t, "13", imm.Foglio)
	assert.Equal(t, "A/2", imm.Categoria)
	require.NotNil(t, imm.SuperficieTotale)
	assert.Equal(t, 80.0, *imm.SuperficieTotale)

	var contract catastodomain.Contract
	require.NoError(t, db.First(&contract, "immobile_id = ?", imm.ID).Error)
	assert.Equal(t, badCF, contract.ConduttoreCF)
	assert.Equal(t, 0.15, contract.ArredatoPct)

	var calc auditdomain.CanoneCalculation
	require.NoError(t, db.First(&calc, "owner_cf = ?", goodCF).Error)
	assert.Equal(t, auditdomain.OutcomeOK, calc.Outcome)
	assert.Positive(t, calc.CanoneMensile)
	assert.NotEmpty(t, calc.Input)
	assert.NotEmpty(t, calc.Result)

	var att auditdomain.AttestazioneLog
	require.NoError(t, db.First(&att, "owner_cf = ?", goodCF).Error)
	assert.Equal(t, auditdomain.StatusGenerated, att.Status)

	ok, err := blobs.Exists(ctx, "attestazioni", att.Object)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunContinuesAfterOwnerFailure(t *testing.T) {
	svc, db, _ := setupPipeline(t, map[string]*extract.Document{
		goodCF: sampleDocument(goodCF, "1"),
	})

	summary := svc.Run(context.Background(), []reconciledomain.Instruction{
		instructionFor(badCF, nil),
		instructionFor(goodCF, nil),
	})
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.NotEmpty(t, summary.RunID)

	var count int64
	require.NoError(t, db.Model(&visuradomain.Visura{}).Where("locatore_cf = ?", badCF).Count(&count).Error)
	assert.Zero(t, count, "failed owner rolls back")
}

func TestProcessOwnerClassificationFailureAudited(t *testing.T) {
	// Neither the micro zone nor the sheet resolve to a zone.
	doc := sampleDocument(goodCF, "99")
	doc.Pages[0].Tables[0][1][0] = "999"
	svc, db, blobs := setupPipeline(t, map[string]*extract.Document{
		goodCF: doc,
	})
	ctx := context.Background()

	require.NoError(t, svc.ProcessOwner(ctx, instructionFor(goodCF, nil)))

	var calc auditdomain.CanoneCalculation
	require.NoError(t, db.First(&calc, "owner_cf = ?", goodCF).Error)
	assert.Equal(t, auditdomain.OutcomeClassificationError, calc.Outcome)
	assert.NotEmpty(t, calc.Error)

	var attCount int64
	require.NoError(t, db.Model(&auditdomain.AttestazioneLog{}).Count(&attCount).Error)
	assert.Zero(t, attCount)

	ok, err := blobs.Exists(ctx, "attestazioni", "attestazione_"+goodCF+"_999_100_5.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}
