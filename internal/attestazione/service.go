package attestazione

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/abruzzotech/attesta/internal/audit/domain"
	"github.com/abruzzotech/attesta/internal/config"
	"github.com/abruzzotech/attesta/internal/metrics"
	"github.com/abruzzotech/attesta/internal/storage"
	"github.com/abruzzotech/attesta/pkg/retry"
)

// Generator renders one attestation, uploads it and leaves an audit row.
type Generator interface {
	Generate(ctx context.Context, db *gorm.DB, data Data) (bucket, object string, err error)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Blobs    storage.BlobStore
	Renderer Renderer
	Audit    auditdomain.Service
	Metrics  *metrics.Metrics
}

type generator struct {
	log      *zap.Logger
	cfg      config.Config
	blobs    storage.BlobStore
	renderer Renderer
	audit    auditdomain.Service
	metrics  *metrics.Metrics
	retry    retry.Policy
}

func New(p Params) Generator {
	logger := p.Log.Named("attestazione.generator")
	return &generator{
		log:      logger,
		cfg:      p.Config,
		blobs:    p.Blobs,
		renderer: p.Renderer,
		audit:    p.Audit,
		metrics:  p.Metrics,
		retry: retry.NewPolicy(
			p.Config.RetryAttempts,
			time.Duration(p.Config.RetryBackoffMS)*time.Millisecond,
			logger,
		),
	}
}

func (g *generator) Generate(ctx context.Context, db *gorm.DB, data Data) (string, string, error) {
	if data.Immobile == nil {
		return "", "", fmt.Errorf("attestazione without immobile")
	}

	params := BuildParams(data)
	object := objectName(params)
	bucket := g.cfg.AttestazioniBucket

	entry := &auditdomain.AttestazioneLog{
		OwnerCF:    data.Immobile.OwnerCF,
		ImmobileID: data.Immobile.ID,
		Bucket:     bucket,
		Object:     object,
	}
	if snapshot, err := json.Marshal(params); err == nil {
		entry.Params = snapshot
	}

	pdf, err := g.renderer.Render(ctx, params)
	if err == nil {
		err = g.retry.Do(ctx, "storage.upload_attestazione", func() error {
			return g.blobs.Upload(ctx, bucket, object, pdf, "application/pdf")
		})
	}

	if err != nil {
		entry.Status = auditdomain.StatusFailed
		entry.Error = err.Error()
		g.metrics.Attestazioni.WithLabelValues(auditdomain.StatusFailed).Inc()
		if aerr := g.audit.RecordAttestazione(ctx, db, entry); aerr != nil {
			g.log.Error("audit write failed", zap.Error(aerr))
		}
		return "", "", fmt.Errorf("attestazione for %s: %w", data.Immobile.OwnerCF, err)
	}

	entry.Status = auditdomain.StatusGenerated
	g.metrics.Attestazioni.WithLabelValues(auditdomain.StatusGenerated).Inc()
	if aerr := g.audit.RecordAttestazione(ctx, db, entry); aerr != nil {
		return "", "", fmt.Errorf("attestazione audit: %w", aerr)
	}

	g.log.Info("attestazione generated",
		zap.String("owner_cf", data.Immobile.OwnerCF),
		zap.String("object", object),
	)
	return bucket, object, nil
}

func objectName(p map[string]string) string {
	parts := []string{"attestazione", p["LOCATORE_CF"], p["FOGLIO"], p["NUMERO"]}
	if p["SUB"] != "" {
		parts = append(parts, p["SUB"])
	}
	return strings.Join(parts, "_") + ".pdf"
}
