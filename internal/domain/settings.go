package domain

import "time"

// SettingsRowID is the primary key of the single MarketSettings row.
const SettingsRowID = 1

// MarketSettings holds the process-wide fee policy.
type MarketSettings struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement:false" json:"-"`
	FeeRatePoints int       `gorm:"column:fee_rate_points;not null" json:"fee_rate_points"`
	FeeRecipient  string    `gorm:"column:fee_recipient;type:varchar(42);not null" json:"fee_recipient"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (MarketSettings) TableName() string {
	return "market_settings"
}

// PaymentDenomination is one entry of the payment allow-list.
type PaymentDenomination struct {
	Denomination Denomination `gorm:"column:denomination;type:varchar(42);primaryKey" json:"denomination"`
	Allowed      bool         `gorm:"column:allowed;not null" json:"allowed"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (PaymentDenomination) TableName() string {
	return "payment_denominations"
}

// Sequence is a monotonic id generator owned by one registry.
type Sequence struct {
	Name      string `gorm:"column:name;type:varchar(32);primaryKey"`
	NextValue uint64 `gorm:"column:next_value;not null"`
}

func (Sequence) TableName() string {
	return "sequences"
}
