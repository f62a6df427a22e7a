package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event kinds recorded for external indexing.
const (
	EventListed                     = "Listed"
	EventListingCancelled           = "ListingCancelled"
	EventListingUpdated             = "ListingUpdated"
	EventSold                       = "Sold"
	EventOfferCreated               = "OfferCreated"
	EventOfferCancelled             = "OfferCancelled"
	EventOfferAccepted              = "OfferAccepted"
	EventFeeRateUpdated             = "FeeRateUpdated"
	EventFeeRecipientUpdated        = "FeeRecipientUpdated"
	EventPaymentDenominationUpdated = "PaymentDenominationUpdated"
)

// MarketEvent is written in the same transaction as the state change it describes.
type MarketEvent struct {
	EventID       uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Sequence      uint64         `gorm:"column:sequence;not null;uniqueIndex" json:"sequence"`
	Kind          string         `gorm:"column:kind;type:varchar(40);not null;index" json:"kind"`
	ListingID     *uint64        `gorm:"column:listing_id;index" json:"listing_id,omitempty"`
	OfferID       *uint64        `gorm:"column:offer_id;index" json:"offer_id,omitempty"`
	AssetContract string         `gorm:"column:asset_contract;type:varchar(42)" json:"asset_contract,omitempty"`
	AssetID       string         `gorm:"column:asset_id;type:varchar(78)" json:"asset_id,omitempty"`
	Actor         string         `gorm:"column:actor;type:varchar(42);index" json:"actor"`
	EventData     datatypes.JSON `gorm:"column:event_data;not null" json:"event_data"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (MarketEvent) TableName() string {
	return "market_events"
}

func (e *MarketEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
