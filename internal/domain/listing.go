package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a standing offer by Seller to sell one asset at a fixed price.
// Rows are deactivated, never deleted.
type Listing struct {
	ListingID     uint64          `gorm:"column:listing_id;primaryKey;autoIncrement:false" json:"listing_id"`
	Seller        string          `gorm:"column:seller;type:varchar(42);not null;index" json:"seller"`
	AssetContract string          `gorm:"column:asset_contract;type:varchar(42);not null;index:idx_listings_asset" json:"asset_contract"`
	AssetID       string          `gorm:"column:asset_id;type:varchar(78);not null;index:idx_listings_asset" json:"asset_id"`
	Denomination  Denomination    `gorm:"column:denomination;type:varchar(42);not null" json:"denomination"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(78,0);not null" json:"price"`
	Active        bool            `gorm:"column:active;not null;index" json:"active"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

func (l *Listing) Asset() AssetRef {
	return AssetRef{Contract: l.AssetContract, TokenID: l.AssetID}
}

// AssetListing is the asset index: at most one row, hence one active listing, per asset.
// The row exists exactly while the referenced listing is active.
type AssetListing struct {
	AssetContract string    `gorm:"column:asset_contract;type:varchar(42);primaryKey" json:"asset_contract"`
	AssetID       string    `gorm:"column:asset_id;type:varchar(78);primaryKey" json:"asset_id"`
	ListingID     uint64    `gorm:"column:listing_id;not null;uniqueIndex" json:"listing_id"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AssetListing) TableName() string {
	return "asset_listings"
}
