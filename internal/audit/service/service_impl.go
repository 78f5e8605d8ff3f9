package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abruzzotech/attesta/internal/audit/domain"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type service struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
	}
}

func (s *service) RecordCalculation(ctx context.Context, db *gorm.DB, calc *domain.CanoneCalculation) error {
	if calc.ID == 0 {
		calc.ID = s.genID.Generate()
	}
	return db.WithContext(ctx).Create(calc).Error
}

func (s *service) RecordAttestazione(ctx context.Context, db *gorm.DB, entry *domain.AttestazioneLog) error {
	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (s *service) ListCalculations(ctx context.Context, db *gorm.DB, ownerCF string) ([]*domain.CanoneCalculation, error) {
	var out []*domain.CanoneCalculation
	err := db.WithContext(ctx).
		Where("owner_cf = ?", ownerCF).
		Order("created_at desc, id desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
