package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the built-in ledger's holding of one denomination by one account.
type Balance struct {
	Account      string          `gorm:"column:account;type:varchar(42);primaryKey" json:"account"`
	Denomination Denomination    `gorm:"column:denomination;type:varchar(42);primaryKey" json:"denomination"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(78,0);not null" json:"amount"`
	UpdatedAt    time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Balance) TableName() string {
	return "balances"
}

// Allowance is how much Spender may pull from Owner in a token denomination.
type Allowance struct {
	Owner        string          `gorm:"column:owner;type:varchar(42);primaryKey" json:"owner"`
	Spender      string          `gorm:"column:spender;type:varchar(42);primaryKey" json:"spender"`
	Denomination Denomination    `gorm:"column:denomination;type:varchar(42);primaryKey" json:"denomination"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(78,0);not null" json:"amount"`
	UpdatedAt    time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Allowance) TableName() string {
	return "allowances"
}
