package offers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"nftmarket-backend/internal/application/admin"
	"nftmarket-backend/internal/application/market"
	"nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/database"
	"nftmarket-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultMaxDuration bounds how long an offer may stay open.
const DefaultMaxDuration = 90 * 24 * time.Hour

type Service struct {
	Runner *market.Runner
	Ledger domain.FundsLedger
	// Spender is the engine account that pulls offer payments from buyers.
	Spender     string
	MaxDuration time.Duration
	Clock       func() time.Time
}

type CreateInput struct {
	Buyer        string
	Asset        domain.AssetRef
	Denomination domain.Denomination
	Price        decimal.Decimal
	Duration     time.Duration
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) maxDuration() time.Duration {
	if s.MaxDuration > 0 {
		return s.MaxDuration
	}
	return DefaultMaxDuration
}

// Create records an offer. Allowance and balance are checked here only as a courtesy to the
// buyer; acceptance pulls the funds and fails if they are gone by then.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Offer, error) {
	if !validation.IsValidAddress(in.Buyer) {
		return nil, market.ErrInvalidAccount
	}
	buyer := domain.NormalizeAddress(in.Buyer)
	if !validation.IsValidAddress(in.Asset.Contract) || !validation.IsValidTokenID(in.Asset.TokenID) {
		return nil, market.ErrInvalidAsset
	}
	asset := domain.NewAssetRef(in.Asset.Contract, in.Asset.TokenID)
	if !validation.IsPositiveInteger(in.Price) {
		return nil, market.ErrInvalidPrice
	}
	if in.Denomination.IsZero() {
		return nil, market.ErrDenominationNotAllowed
	}
	if in.Denomination.IsNative() {
		return nil, market.ErrNativeNotAllowedForOffers
	}
	if !validation.IsValidDuration(in.Duration, s.maxDuration()) {
		return nil, market.ErrInvalidDuration
	}

	var created *domain.Offer
	err := s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		allowed, err := admin.IsAllowed(ctx, tx, in.Denomination)
		if err != nil {
			return err
		}
		if !allowed {
			return market.ErrDenominationNotAllowed
		}
		allowance, err := s.Ledger.Allowance(ctx, in.Denomination, buyer, s.Spender)
		if err != nil {
			return err
		}
		if allowance.LessThan(in.Price) {
			return market.ErrInsufficientAllowance
		}
		balance, err := s.Ledger.BalanceOf(ctx, in.Denomination, buyer)
		if err != nil {
			return err
		}
		if balance.LessThan(in.Price) {
			return market.ErrInsufficientBalance
		}

		id, err := database.NextID(tx, database.SeqOffer)
		if err != nil {
			return fmt.Errorf("Failed to allocate offer id: %w", err)
		}
		offer := &domain.Offer{
			OfferID:       id,
			Buyer:         buyer,
			AssetContract: asset.Contract,
			AssetID:       asset.TokenID,
			Denomination:  in.Denomination,
			Price:         in.Price,
			ExpiresAt:     s.now().Add(in.Duration).UTC(),
			Active:        true,
		}
		if err := tx.Create(offer).Error; err != nil {
			return fmt.Errorf("Failed to create offer: %w", err)
		}
		created = offer
		_, err = j.Record(marketevents.Entry{
			Kind:    domain.EventOfferCreated,
			OfferID: marketevents.ID(id),
			Asset:   &asset,
			Actor:   buyer,
			Data: map[string]interface{}{
				"buyer":        buyer,
				"denomination": in.Denomination.String(),
				"price":        in.Price.String(),
				"expires_at":   offer.ExpiresAt,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("offer_id", created.OfferID).Str("asset", asset.String()).Str("buyer", buyer).Msg("offer created")
	return created, nil
}

func (s *Service) Cancel(ctx context.Context, id uint64, caller string) error {
	return s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		o, err := Load(tx, id)
		if err != nil {
			return err
		}
		if !o.Active {
			return market.ErrNotActive
		}
		if domain.NormalizeAddress(caller) != o.Buyer {
			return market.ErrNotBuyer
		}
		if err := Retire(tx, o); err != nil {
			return err
		}
		asset := o.Asset()
		_, err = j.Record(marketevents.Entry{
			Kind:    domain.EventOfferCancelled,
			OfferID: marketevents.ID(o.OfferID),
			Asset:   &asset,
			Actor:   o.Buyer,
		})
		return err
	})
}

// Load reads an offer by id inside tx.
func Load(tx *gorm.DB, id uint64) (*domain.Offer, error) {
	var o domain.Offer
	if err := tx.Where("offer_id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrOfferNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Retire deactivates o inside tx. An offer no longer active in the database fails with
// ErrNotActive.
func Retire(tx *gorm.DB, o *domain.Offer) error {
	res := tx.Model(&domain.Offer{}).
		Where("offer_id = ? AND active = ?", o.OfferID, true).
		Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("Failed to deactivate offer: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return market.ErrNotActive
	}
	o.Active = false
	return nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*domain.Offer, error) {
	return Load(database.Conn(ctx, s.Runner.DB), id)
}

// ListForAsset returns the active, unexpired offers for asset, best price first.
func (s *Service) ListForAsset(ctx context.Context, asset domain.AssetRef) ([]domain.Offer, error) {
	asset = domain.NewAssetRef(asset.Contract, asset.TokenID)
	var rows []domain.Offer
	if err := database.Conn(ctx, s.Runner.DB).
		Where("asset_contract = ? AND asset_id = ? AND active = ?", asset.Contract, asset.TokenID, true).
		Order("offer_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch offers: %v", err)
	}
	now := s.now()
	out := make([]domain.Offer, 0, len(rows))
	for _, o := range rows {
		if !o.Expired(now) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Price.GreaterThan(out[b].Price)
	})
	return out, nil
}
