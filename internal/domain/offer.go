package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a time-bound bid by Buyer for one asset, always in a fungible token.
// Offers are immutable apart from deactivation.
type Offer struct {
	OfferID       uint64          `gorm:"column:offer_id;primaryKey;autoIncrement:false" json:"offer_id"`
	Buyer         string          `gorm:"column:buyer;type:varchar(42);not null;index" json:"buyer"`
	AssetContract string          `gorm:"column:asset_contract;type:varchar(42);not null;index:idx_offers_asset" json:"asset_contract"`
	AssetID       string          `gorm:"column:asset_id;type:varchar(78);not null;index:idx_offers_asset" json:"asset_id"`
	Denomination  Denomination    `gorm:"column:denomination;type:varchar(42);not null" json:"denomination"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(78,0);not null" json:"price"`
	ExpiresAt     time.Time       `gorm:"column:expires_at;not null" json:"expires_at"`
	Active        bool            `gorm:"column:active;not null;index" json:"active"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Offer) TableName() string {
	return "offers"
}

func (o *Offer) Asset() AssetRef {
	return AssetRef{Contract: o.AssetContract, TokenID: o.AssetID}
}

// Expired reports whether the offer can no longer be accepted at now.
func (o *Offer) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
