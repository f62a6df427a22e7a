package fees

import (
	"context"
	"errors"
	"fmt"

	"nftmarket-backend/internal/application/market"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/database"
	"nftmarket-backend/internal/pkg/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// Denominator is the basis-point scale: a rate of 250 is 2.5%.
	Denominator = 10000
	// MaxRate is the hard ceiling on the fee rate (10%).
	MaxRate = 1000
)

var denominator = decimal.NewFromInt(Denominator)

// Policy is the fee configuration in effect.
type Policy struct {
	RatePoints int    `json:"fee_rate_points"`
	Recipient  string `json:"fee_recipient"`
}

// Split divides price into the seller's proceeds and the platform fee:
// fee = floor(price * rate / 10000), seller = price - fee. seller + fee == price always.
func Split(price decimal.Decimal, ratePoints int) (sellerAmount, feeAmount decimal.Decimal) {
	if ratePoints <= 0 || !price.IsPositive() {
		return price, decimal.Zero
	}
	feeAmount, _ = price.Mul(decimal.NewFromInt(int64(ratePoints))).QuoRem(denominator, 0)
	return price.Sub(feeAmount), feeAmount
}

// Split applies this policy's rate.
func (p Policy) Split(price decimal.Decimal) (sellerAmount, feeAmount decimal.Decimal) {
	return Split(price, p.RatePoints)
}

func ValidateRate(ratePoints int) error {
	if ratePoints < 0 || ratePoints > MaxRate {
		return fmt.Errorf("%w: %d exceeds %d", market.ErrRateTooHigh, ratePoints, MaxRate)
	}
	return nil
}

func ValidateRecipient(recipient string) error {
	if !validation.IsValidAddress(recipient) || validation.IsZeroAddress(recipient) {
		return market.ErrInvalidRecipient
	}
	return nil
}

// Store reads the persisted policy, joining the transaction carried by ctx.
type Store struct {
	DB *gorm.DB
}

var ErrNotInitialized = errors.New("Market settings not initialized")

func (s *Store) Current(ctx context.Context) (Policy, error) {
	var row domain.MarketSettings
	if err := database.Conn(ctx, s.DB).Where("id = ?", domain.SettingsRowID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Policy{}, ErrNotInitialized
		}
		return Policy{}, err
	}
	return Policy{RatePoints: row.FeeRatePoints, Recipient: row.FeeRecipient}, nil
}
