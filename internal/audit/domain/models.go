// Package domain holds the append-only audit records: one row per canone
// calculation and one per attestazione attempt. Rows are never updated or
// deleted.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OutcomeOK                  = "ok"
	OutcomeClassificationError = "classification_error"
	OutcomeValidationError     = "validation_error"

	StatusGenerated = "generated"
	StatusFailed    = "failed"
)

// CanoneCalculation snapshots one rent computation: full input, full
// result, and the headline monthly figure for quick queries.
type CanoneCalculation struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerCF    string        `gorm:"not null;index" json:"owner_cf"`
	ImmobileID snowflake.ID  `gorm:"not null;index" json:"immobile_id"`
	ContractID *snowflake.ID `json:"contract_id,omitempty"`

	Input  datatypes.JSON `json:"input"`
	Result datatypes.JSON `json:"result,omitempty"`

	CanoneMensile float64 `json:"canone_mensile"`
	Outcome       string  `gorm:"not null" json:"outcome"`
	Error         string  `json:"error,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (CanoneCalculation) TableName() string { return "canone_calculations" }

// AttestazioneLog records one attestazione generation attempt and where the
// rendered document went.
type AttestazioneLog struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerCF    string       `gorm:"not null;index" json:"owner_cf"`
	ImmobileID snowflake.ID `gorm:"not null;index" json:"immobile_id"`

	Status string `gorm:"not null" json:"status"`
	Bucket string `json:"bucket,omitempty"`
	Object string `json:"object,omitempty"`

	Params datatypes.JSON `json:"params,omitempty"`
	Error  string         `json:"error,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AttestazioneLog) TableName() string { return "attestazione_logs" }

// Service is insert-only by construction.
type Service interface {
	RecordCalculation(ctx context.Context, db *gorm.DB, calc *CanoneCalculation) error
	RecordAttestazione(ctx context.Context, db *gorm.DB, entry *AttestazioneLog) error
	ListCalculations(ctx context.Context, db *gorm.DB, ownerCF string) ([]*CanoneCalculation, error)
}
