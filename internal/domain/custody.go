package domain

import "time"

// AssetOwnership is the built-in custodian's owner-of-record for one asset, plus its
// single-token transfer approval.
type AssetOwnership struct {
	AssetContract string    `gorm:"column:asset_contract;type:varchar(42);primaryKey" json:"asset_contract"`
	AssetID       string    `gorm:"column:asset_id;type:varchar(78);primaryKey" json:"asset_id"`
	Owner         string    `gorm:"column:owner;type:varchar(42);not null;index" json:"owner"`
	Approved      string    `gorm:"column:approved;type:varchar(42)" json:"approved"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (AssetOwnership) TableName() string {
	return "asset_ownerships"
}

// OperatorApproval grants Operator transfer rights over every asset Owner holds in Contract.
type OperatorApproval struct {
	Owner     string    `gorm:"column:owner;type:varchar(42);primaryKey" json:"owner"`
	Operator  string    `gorm:"column:operator;type:varchar(42);primaryKey" json:"operator"`
	Contract  string    `gorm:"column:contract;type:varchar(42);primaryKey" json:"contract"`
	Approved  bool      `gorm:"column:approved;not null" json:"approved"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (OperatorApproval) TableName() string {
	return "operator_approvals"
}
