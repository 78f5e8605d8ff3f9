// Package service keeps cached visure usable: it applies the freshness
// policy, hits the portal when needed and mirrors PDF plus tabular document
// into object storage.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abruzzotech/attesta/internal/clock"
	"github.com/abruzzotech/attesta/internal/config"
	"github.com/abruzzotech/attesta/internal/metrics"
	"github.com/abruzzotech/attesta/internal/portal"
	"github.com/abruzzotech/attesta/internal/storage"
	"github.com/abruzzotech/attesta/internal/visura/domain"
	"github.com/abruzzotech/attesta/internal/visura/extract"
	"github.com/abruzzotech/attesta/internal/visura/policy"
	"github.com/abruzzotech/attesta/pkg/retry"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Blobs   storage.BlobStore
	Portal  portal.Portal
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

type service struct {
	log     *zap.Logger
	cfg     config.Config
	blobs   storage.BlobStore
	portal  portal.Portal
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
	retry   retry.Policy
}

func New(p Params) domain.Service {
	logger := p.Log.Named("visura.service")
	return &service{
		log:     logger,
		cfg:     p.Config,
		blobs:   p.Blobs,
		portal:  p.Portal,
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
		retry: retry.NewPolicy(
			p.Config.RetryAttempts,
			time.Duration(p.Config.RetryBackoffMS)*time.Millisecond,
			logger,
		),
	}
}

func pdfObject(cf string) string { return cf + ".pdf" }
func docObject(cf string) string { return cf + ".json" }

func (s *service) Ensure(ctx context.Context, db *gorm.DB, locatoreCF string, forceUpdate bool) (*domain.Ensured, error) {
	cf := strings.ToUpper(strings.TrimSpace(locatoreCF))
	if cf == "" {
		return nil, fmt.Errorf("empty fiscal code")
	}

	stored, err := s.find(ctx, db, cf)
	if err != nil {
		return nil, err
	}

	remoteExists := false
	if stored != nil {
		remoteExists, err = s.blobs.Exists(ctx, stored.PDFBucket, stored.PDFObject)
		if err != nil {
			return nil, fmt.Errorf("stat visura object: %w", err)
		}
	}

	decision := policy.Decide(forceUpdate, s.cfg.VisuraTTLDays, stored, remoteExists, s.clock.Now())
	s.metrics.VisureFetched.WithLabelValues(decision.Reason).Inc()

	if !decision.Refetch {
		doc, err := s.cachedDocument(ctx, stored)
		if err != nil {
			return nil, err
		}
		return &domain.Ensured{Visura: stored, Document: doc, Reason: decision.Reason}, nil
	}

	s.log.Info("fetching visura",
		zap.String("locatore_cf", cf),
		zap.String("reason", decision.Reason),
	)

	var fetched *portal.FetchResult
	err = s.retry.Do(ctx, "portal.fetch_visura", func() error {
		var ferr error
		fetched, ferr = s.portal.FetchVisura(ctx, cf)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch visura for %s: %w", cf, err)
	}

	if err := s.store(ctx, cf, fetched); err != nil {
		return nil, err
	}

	row, err := s.upsertRow(ctx, db, stored, cf, fetched.PDF)
	if err != nil {
		return nil, err
	}

	return &domain.Ensured{
		Visura:    row,
		Document:  fetched.Document,
		Refetched: true,
		Reason:    decision.Reason,
	}, nil
}

func (s *service) find(ctx context.Context, db *gorm.DB, cf string) (*domain.Visura, error) {
	var row domain.Visura
	err := db.WithContext(ctx).Where("locatore_cf = ?", cf).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *service) cachedDocument(ctx context.Context, stored *domain.Visura) (*extract.Document, error) {
	var raw []byte
	err := s.retry.Do(ctx, "storage.download_document", func() error {
		var derr error
		raw, derr = s.blobs.Download(ctx, stored.PDFBucket, docObject(stored.LocatoreCF))
		return derr
	})
	if err != nil {
		return nil, fmt.Errorf("cached document for %s: %w", stored.LocatoreCF, err)
	}
	var doc extract.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cached document for %s: %w", stored.LocatoreCF, err)
	}
	return &doc, nil
}

func (s *service) store(ctx context.Context, cf string, fetched *portal.FetchResult) error {
	docJSON, err := json.Marshal(fetched.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	err = s.retry.Do(ctx, "storage.upload_visura", func() error {
		if uerr := s.blobs.Upload(ctx, s.cfg.VisureBucket, pdfObject(cf), fetched.PDF, "application/pdf"); uerr != nil {
			return uerr
		}
		return s.blobs.Upload(ctx, s.cfg.VisureBucket, docObject(cf), docJSON, "application/json")
	})
	if err != nil {
		return fmt.Errorf("store visura for %s: %w", cf, err)
	}
	return nil
}

func (s *service) upsertRow(ctx context.Context, db *gorm.DB, stored *domain.Visura, cf string, pdf []byte) (*domain.Visura, error) {
	sum := sha256.Sum256(pdf)
	now := s.clock.Now()

	if stored == nil {
		row := &domain.Visura{
			ID:             s.genID.Generate(),
			LocatoreCF:     cf,
			PDFBucket:      s.cfg.VisureBucket,
			PDFObject:      pdfObject(cf),
			ChecksumSHA256: hex.EncodeToString(sum[:]),
			FetchedAt:      &now,
		}
		if err := db.WithContext(ctx).Create(row).Error; err != nil {
			return nil, fmt.Errorf("insert visura row: %w", err)
		}
		return row, nil
	}

	stored.PDFBucket = s.cfg.VisureBucket
	stored.PDFObject = pdfObject(cf)
	stored.ChecksumSHA256 = hex.EncodeToString(sum[:])
	stored.FetchedAt = &now
	if err := db.WithContext(ctx).Save(stored).Error; err != nil {
		return nil, fmt.Errorf("update visura row: %w", err)
	}
	return stored, nil
}
