package transactions

import (
	"context"
	"fmt"

	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// Trade sides relative to the viewing account.
const (
	SideBought = "bought"
	SideSold   = "sold"
)

const maxTrades = 500

var ErrAccountMissing = fmt.Errorf("account address missing from session")

type Service struct {
	DB *gorm.DB
}

type FormattedTrade struct {
	domain.Trade
	Side         string `json:"side"`
	Counterparty string `json:"counterparty"`
}

// ViewTransactions lists the settled trades account took part in, newest first.
func (s *Service) ViewTransactions(ctx context.Context, account string) ([]FormattedTrade, error) {
	if !validation.IsValidAddress(account) {
		return nil, ErrAccountMissing
	}
	account = domain.NormalizeAddress(account)

	var trades []domain.Trade
	if err := s.DB.WithContext(ctx).
		Where("buyer = ? OR seller = ?", account, account).
		Order("created_at DESC").
		Limit(maxTrades).
		Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch trades: %w", err)
	}

	out := make([]FormattedTrade, 0, len(trades))
	for _, t := range trades {
		ft := FormattedTrade{Trade: t, Side: SideBought, Counterparty: t.Seller}
		if t.Seller == account {
			ft.Side = SideSold
			ft.Counterparty = t.Buyer
		}
		out = append(out, ft)
	}
	return out, nil
}
