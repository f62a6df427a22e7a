package ledger

import (
	"context"
	"errors"

	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAmount         = errors.New("Invalid amount")
	ErrInsufficientFunds     = errors.New("Insufficient funds")
	ErrInsufficientAllowance = errors.New("Insufficient allowance")
	ErrTokenOnly             = errors.New("Operation requires a token denomination")
	ErrNativeOnly            = errors.New("Operation requires the native denomination")
)

// Ledger is a GORM-backed funds ledger holding balances per (account, denomination) and token
// allowances per (owner, spender, denomination). It joins the transaction carried by the context.
type Ledger struct {
	DB *gorm.DB
}

var _ domain.FundsLedger = (*Ledger)(nil)

func (l *Ledger) balance(ctx context.Context, denom domain.Denomination, account string) (*domain.Balance, error) {
	row := domain.Balance{Account: account, Denomination: denom, Amount: decimal.Zero}
	err := database.Conn(ctx, l.DB).
		Where("account = ? AND denomination = ?", account, denom).
		First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &row, nil
}

func (l *Ledger) BalanceOf(ctx context.Context, denom domain.Denomination, account string) (decimal.Decimal, error) {
	row, err := l.balance(ctx, denom, account)
	if err != nil {
		return decimal.Zero, err
	}
	return row.Amount, nil
}

func (l *Ledger) Allowance(ctx context.Context, denom domain.Denomination, owner, spender string) (decimal.Decimal, error) {
	var row domain.Allowance
	err := database.Conn(ctx, l.DB).
		Where("owner = ? AND spender = ? AND denomination = ?", owner, spender, denom).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return row.Amount, nil
}

// move debits from and credits to inside one transaction. The debit is a conditional
// decrement, so concurrent writers can never drive a balance below zero or overwrite each
// other's result.
func (l *Ledger) move(ctx context.Context, denom domain.Denomination, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	if amount.IsZero() || from == to {
		return nil
	}
	return database.Transaction(ctx, l.DB, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Model(&domain.Balance{}).
			Where("account = ? AND denomination = ? AND amount >= ?", from, denom, amount).
			Update("amount", gorm.Expr("amount - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrInsufficientFunds
		}
		return credit(tx, denom, to, amount)
	})
}

// credit adds amount to account, creating the balance row on first use.
func credit(tx *gorm.DB, denom domain.Denomination, account string, amount decimal.Decimal) error {
	row := domain.Balance{Account: account, Denomination: denom, Amount: amount}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}, {Name: "denomination"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("balances.amount + ?", amount),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&row).Error
}

// TransferFrom lets spender pull amount of a token from one account to another, consuming
// allowance. The allowance is decremented conditionally, in the same transaction as the move.
func (l *Ledger) TransferFrom(ctx context.Context, denom domain.Denomination, spender, from, to string, amount decimal.Decimal) error {
	if denom.IsNative() {
		return ErrTokenOnly
	}
	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}
	return database.Transaction(ctx, l.DB, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Model(&domain.Allowance{}).
			Where("owner = ? AND spender = ? AND denomination = ? AND amount >= ?", from, spender, denom, amount).
			Update("amount", gorm.Expr("amount - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrInsufficientAllowance
		}
		return l.move(ctx, denom, from, to, amount)
	})
}

// CollectNative is the value-bearing leg of a native purchase: from pays amount into escrow.
func (l *Ledger) CollectNative(ctx context.Context, from, escrow string, amount decimal.Decimal) error {
	return l.move(ctx, domain.Native(), from, escrow, amount)
}

// SendNative pays out of escrow.
func (l *Ledger) SendNative(ctx context.Context, escrow, to string, amount decimal.Decimal) error {
	return l.move(ctx, domain.Native(), escrow, to, amount)
}

// Deposit credits account with freshly issued funds.
func (l *Ledger) Deposit(ctx context.Context, denom domain.Denomination, account string, amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	return credit(database.Conn(ctx, l.DB), denom, domain.NormalizeAddress(account), amount)
}

// Approve sets the allowance owner grants spender in a token denomination.
func (l *Ledger) Approve(ctx context.Context, denom domain.Denomination, owner, spender string, amount decimal.Decimal) error {
	if denom.IsNative() {
		return ErrTokenOnly
	}
	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	return l.setAllowance(ctx, denom, domain.NormalizeAddress(owner), domain.NormalizeAddress(spender), amount)
}

func (l *Ledger) setAllowance(ctx context.Context, denom domain.Denomination, owner, spender string, amount decimal.Decimal) error {
	row := domain.Allowance{Owner: owner, Spender: spender, Denomination: denom, Amount: amount}
	return database.Conn(ctx, l.DB).Save(&row).Error
}
