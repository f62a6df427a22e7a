package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TradeKindListing = "listing"
	TradeKindOffer   = "offer"
)

// Trade is the settlement record of one completed sale, with the fee split that was paid out.
type Trade struct {
	TradeID       uuid.UUID       `gorm:"column:trade_id;type:uuid;primaryKey" json:"trade_id"`
	Kind          string          `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	ListingID     *uint64         `gorm:"column:listing_id" json:"listing_id,omitempty"`
	OfferID       *uint64         `gorm:"column:offer_id" json:"offer_id,omitempty"`
	Seller        string          `gorm:"column:seller;type:varchar(42);not null;index" json:"seller"`
	Buyer         string          `gorm:"column:buyer;type:varchar(42);not null;index" json:"buyer"`
	AssetContract string          `gorm:"column:asset_contract;type:varchar(42);not null" json:"asset_contract"`
	AssetID       string          `gorm:"column:asset_id;type:varchar(78);not null" json:"asset_id"`
	Denomination  Denomination    `gorm:"column:denomination;type:varchar(42);not null" json:"denomination"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(78,0);not null" json:"price"`
	SellerAmount  decimal.Decimal `gorm:"column:seller_amount;type:numeric(78,0);not null" json:"seller_amount"`
	FeeAmount     decimal.Decimal `gorm:"column:fee_amount;type:numeric(78,0);not null" json:"fee_amount"`
	FeeRecipient  string          `gorm:"column:fee_recipient;type:varchar(42);not null" json:"fee_recipient"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.TradeID == uuid.Nil {
		t.TradeID = uuid.New()
	}
	return nil
}
