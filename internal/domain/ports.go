package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnknownAsset is returned by an AssetCustodian for an asset it has no record of.
var ErrUnknownAsset = errors.New("Unknown asset")

// AssetCustodian answers who owns an asset and who may move it, and performs transfers.
// Implementations must join the transaction carried by ctx, if any.
type AssetCustodian interface {
	OwnerOf(ctx context.Context, asset AssetRef) (string, error)
	IsTransferAuthorized(ctx context.Context, holder, operator string, asset AssetRef) (bool, error)
	Transfer(ctx context.Context, operator, from, to string, asset AssetRef) error
}

// FundsLedger moves value. Token denominations move through allowances granted to the
// spender; native value is collected into an escrow account and paid out from it.
// Implementations must join the transaction carried by ctx, if any.
type FundsLedger interface {
	BalanceOf(ctx context.Context, denom Denomination, account string) (decimal.Decimal, error)
	Allowance(ctx context.Context, denom Denomination, owner, spender string) (decimal.Decimal, error)
	TransferFrom(ctx context.Context, denom Denomination, spender, from, to string, amount decimal.Decimal) error
	CollectNative(ctx context.Context, from, escrow string, amount decimal.Decimal) error
	SendNative(ctx context.Context, escrow, to string, amount decimal.Decimal) error
}
