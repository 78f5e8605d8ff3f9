package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Visura records that a cadastral extract has been fetched for an owner and
// where its bytes live. One row per owner fiscal code.
type Visura struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	LocatoreCF     string       `gorm:"not null;uniqueIndex" json:"locatore_cf"`
	PDFBucket      string       `gorm:"not null" json:"pdf_bucket"`
	PDFObject      string       `gorm:"not null" json:"pdf_object"`
	ChecksumSHA256 string       `json:"checksum_sha256,omitempty"`
	FetchedAt      *time.Time   `json:"fetched_at,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Visura) TableName() string { return "visure" }

// Decision is the freshness verdict for one owner's cached extract.
type Decision struct {
	Refetch bool
	Reason  string
}

const (
	ReasonForceUpdate      = "force_update"
	ReasonDBMissing        = "db_missing"
	ReasonStorageMissing   = "storage_missing"
	ReasonTTLDisabled      = "ttl_disabled"
	ReasonMissingFetchedAt = "missing_fetched_at"
	ReasonTTLExpired       = "ttl_expired"
	ReasonFreshEnough      = "fresh_enough"
)
