package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nftmarket-backend/internal/application/fees"
	"nftmarket-backend/internal/application/listings"
	"nftmarket-backend/internal/application/market"
	"nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/application/offers"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service consummates trades. Every leg of a trade (payment, fee, refund, asset transfer,
// registry updates, trade record, events) runs in one transaction; any failure rolls all of
// them back.
type Service struct {
	Runner    *market.Runner
	Custodian domain.AssetCustodian
	Ledger    domain.FundsLedger
	Fees      *fees.Store
	// Engine is the marketplace account: asset operator, token spender and native escrow.
	Engine string
	Clock  func() time.Time
}

// Receipt describes a settled purchase or acceptance.
type Receipt struct {
	Trades []domain.Trade `json:"trades"`
	// Tendered is the native value actually collected from the buyer; zero when nothing was.
	Tendered decimal.Decimal `json:"tendered"`
	Refunded decimal.Decimal `json:"refunded"`
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// PurchaseListing buys listing id for buyer. For native listings tendered must cover the price;
// any excess is refunded. tendered is ignored for token listings.
func (s *Service) PurchaseListing(ctx context.Context, id uint64, buyer string, tendered decimal.Decimal) (*Receipt, error) {
	return s.PurchaseBatch(ctx, []uint64{id}, buyer, tendered)
}

// PurchaseBatch buys every listing in ids for buyer in one transaction. The tendered native
// value must cover the sum of native prices; the excess is refunded once. Any failing listing
// aborts the whole batch.
func (s *Service) PurchaseBatch(ctx context.Context, ids []uint64, buyer string, tendered decimal.Decimal) (*Receipt, error) {
	if len(ids) == 0 {
		return nil, market.ErrArrayLengthMismatch
	}
	if !validation.IsValidAddress(buyer) {
		return nil, market.ErrInvalidAccount
	}
	buyer = domain.NormalizeAddress(buyer)
	if tendered.IsNegative() || !tendered.Equal(tendered.Truncate(0)) {
		return nil, market.ErrInsufficientPayment
	}

	receipt := &Receipt{Tendered: decimal.Zero, Refunded: decimal.Zero}
	err := s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		policy, err := s.Fees.Current(ctx)
		if err != nil {
			return err
		}

		batch := make([]*domain.Listing, 0, len(ids))
		seen := make(map[uint64]bool, len(ids))
		nativeTotal := decimal.Zero
		for _, id := range ids {
			if seen[id] {
				return fmt.Errorf("listing %d: %w", id, market.ErrNotActive)
			}
			seen[id] = true
			l, err := s.checkListing(ctx, tx, id, buyer)
			if err != nil {
				return fmt.Errorf("listing %d: %w", id, err)
			}
			if l.Denomination.IsNative() {
				nativeTotal = nativeTotal.Add(l.Price)
			}
			batch = append(batch, l)
		}
		if tendered.LessThan(nativeTotal) {
			return market.ErrInsufficientPayment
		}

		collected := decimal.Zero
		if nativeTotal.IsPositive() {
			if err := s.Ledger.CollectNative(ctx, buyer, s.Engine, tendered); err != nil {
				return fmt.Errorf("%w: %w", market.ErrPaymentTransferFailed, err)
			}
			collected = tendered
		}
		receipt.Tendered = collected

		for _, l := range batch {
			trade, err := s.settleListing(ctx, tx, j, l, buyer, policy)
			if err != nil {
				return fmt.Errorf("listing %d: %w", l.ListingID, err)
			}
			receipt.Trades = append(receipt.Trades, *trade)
		}

		if excess := collected.Sub(nativeTotal); excess.IsPositive() {
			if err := s.Ledger.SendNative(ctx, s.Engine, buyer, excess); err != nil {
				return fmt.Errorf("%w: %w", market.ErrRefundFailed, err)
			}
			receipt.Refunded = excess
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("buyer", buyer).Interface("listing_ids", ids).Msg("purchase rejected")
		return nil, err
	}
	for _, t := range receipt.Trades {
		log.Info().Uint64("listing_id", *t.ListingID).Str("buyer", t.Buyer).Str("seller", t.Seller).
			Str("price", t.Price.String()).Str("fee", t.FeeAmount.String()).Msg("listing sold")
	}
	return receipt, nil
}

// checkListing revalidates a listing against live custody state before any funds move.
func (s *Service) checkListing(ctx context.Context, tx *gorm.DB, id uint64, buyer string) (*domain.Listing, error) {
	var l domain.Listing
	if err := tx.Where("listing_id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrNotActive
		}
		return nil, err
	}
	if !l.Active {
		return nil, market.ErrNotActive
	}
	if l.Seller == buyer {
		return nil, market.ErrSelfTrade
	}
	asset := l.Asset()
	owner, err := s.Custodian.OwnerOf(ctx, asset)
	if err != nil && !errors.Is(err, domain.ErrUnknownAsset) {
		return nil, fmt.Errorf("Failed to read asset owner: %w", err)
	}
	if err != nil || domain.NormalizeAddress(owner) != l.Seller {
		return nil, market.ErrSellerNoLongerHolds
	}
	ok, err := s.Custodian.IsTransferAuthorized(ctx, l.Seller, s.Engine, asset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, market.ErrTransferNotAuthorized
	}
	return &l, nil
}

func (s *Service) settleListing(ctx context.Context, tx *gorm.DB, j *marketevents.Journal, l *domain.Listing, buyer string, policy fees.Policy) (*domain.Trade, error) {
	sellerAmount, feeAmount := policy.Split(l.Price)
	if err := s.pay(ctx, l.Denomination, buyer, l.Seller, policy.Recipient, sellerAmount, feeAmount); err != nil {
		return nil, err
	}
	asset := l.Asset()
	if err := s.Custodian.Transfer(ctx, s.Engine, l.Seller, buyer, asset); err != nil {
		return nil, fmt.Errorf("%w: %w", market.ErrAssetTransferFailed, err)
	}
	if err := listings.Retire(tx, l); err != nil {
		return nil, err
	}
	trade := &domain.Trade{
		Kind:          domain.TradeKindListing,
		ListingID:     marketevents.ID(l.ListingID),
		Seller:        l.Seller,
		Buyer:         buyer,
		AssetContract: l.AssetContract,
		AssetID:       l.AssetID,
		Denomination:  l.Denomination,
		Price:         l.Price,
		SellerAmount:  sellerAmount,
		FeeAmount:     feeAmount,
		FeeRecipient:  policy.Recipient,
	}
	if err := tx.Create(trade).Error; err != nil {
		return nil, fmt.Errorf("Failed to record trade: %w", err)
	}
	_, err := j.Record(marketevents.Entry{
		Kind:      domain.EventSold,
		ListingID: marketevents.ID(l.ListingID),
		Asset:     &asset,
		Actor:     buyer,
		Data: map[string]interface{}{
			"seller":        l.Seller,
			"buyer":         buyer,
			"denomination":  l.Denomination.String(),
			"price":         l.Price.String(),
			"seller_amount": sellerAmount.String(),
			"fee_amount":    feeAmount.String(),
			"fee_recipient": policy.Recipient,
		},
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// pay moves the seller's proceeds and the fee from buyer. Native value has already been
// collected into the engine escrow; token value is pulled from the buyer's allowance.
// A zero leg is skipped.
func (s *Service) pay(ctx context.Context, denom domain.Denomination, buyer, seller, feeRecipient string, sellerAmount, feeAmount decimal.Decimal) error {
	leg := func(to string, amount decimal.Decimal) error {
		if !amount.IsPositive() {
			return nil
		}
		if denom.IsNative() {
			return s.Ledger.SendNative(ctx, s.Engine, to, amount)
		}
		return s.Ledger.TransferFrom(ctx, denom, s.Engine, buyer, to, amount)
	}
	if err := leg(seller, sellerAmount); err != nil {
		return fmt.Errorf("%w: %w", market.ErrPaymentTransferFailed, err)
	}
	if err := leg(feeRecipient, feeAmount); err != nil {
		return fmt.Errorf("%w: %w", market.ErrFeeTransferFailed, err)
	}
	return nil
}

// AcceptOffer sells the offered asset from holder to the offer's buyer. Any active listing for
// the same asset is retired in the same transaction.
func (s *Service) AcceptOffer(ctx context.Context, id uint64, holder string) (*Receipt, error) {
	if !validation.IsValidAddress(holder) {
		return nil, market.ErrInvalidAccount
	}
	holder = domain.NormalizeAddress(holder)

	receipt := &Receipt{Tendered: decimal.Zero, Refunded: decimal.Zero}
	err := s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		o, err := offers.Load(tx, id)
		if err != nil {
			if errors.Is(err, market.ErrOfferNotFound) {
				return market.ErrNotActive
			}
			return err
		}
		if !o.Active {
			return market.ErrNotActive
		}
		if o.Expired(s.now()) {
			return market.ErrExpired
		}
		if o.Buyer == holder {
			return market.ErrSelfTrade
		}
		asset := o.Asset()
		owner, err := s.Custodian.OwnerOf(ctx, asset)
		if err != nil && !errors.Is(err, domain.ErrUnknownAsset) {
			return fmt.Errorf("Failed to read asset owner: %w", err)
		}
		if err != nil || domain.NormalizeAddress(owner) != holder {
			return market.ErrNotAssetHolder
		}
		ok, err := s.Custodian.IsTransferAuthorized(ctx, holder, s.Engine, asset)
		if err != nil {
			return err
		}
		if !ok {
			return market.ErrTransferNotAuthorized
		}

		policy, err := s.Fees.Current(ctx)
		if err != nil {
			return err
		}
		sellerAmount, feeAmount := policy.Split(o.Price)
		if err := s.pay(ctx, o.Denomination, o.Buyer, holder, policy.Recipient, sellerAmount, feeAmount); err != nil {
			return err
		}
		if err := s.Custodian.Transfer(ctx, s.Engine, holder, o.Buyer, asset); err != nil {
			return fmt.Errorf("%w: %w", market.ErrAssetTransferFailed, err)
		}
		if err := offers.Retire(tx, o); err != nil {
			return err
		}

		superseded, err := listings.ActiveForAsset(tx, asset)
		if err != nil {
			return err
		}
		if superseded != nil {
			if err := listings.Retire(tx, superseded); err != nil {
				return err
			}
		}

		trade := &domain.Trade{
			Kind:          domain.TradeKindOffer,
			OfferID:       marketevents.ID(o.OfferID),
			Seller:        holder,
			Buyer:         o.Buyer,
			AssetContract: o.AssetContract,
			AssetID:       o.AssetID,
			Denomination:  o.Denomination,
			Price:         o.Price,
			SellerAmount:  sellerAmount,
			FeeAmount:     feeAmount,
			FeeRecipient:  policy.Recipient,
		}
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("Failed to record trade: %w", err)
		}
		receipt.Trades = append(receipt.Trades, *trade)

		if _, err := j.Record(marketevents.Entry{
			Kind:    domain.EventOfferAccepted,
			OfferID: marketevents.ID(o.OfferID),
			Asset:   &asset,
			Actor:   holder,
			Data: map[string]interface{}{
				"seller":        holder,
				"buyer":         o.Buyer,
				"denomination":  o.Denomination.String(),
				"price":         o.Price.String(),
				"seller_amount": sellerAmount.String(),
				"fee_amount":    feeAmount.String(),
				"fee_recipient": policy.Recipient,
			},
		}); err != nil {
			return err
		}
		if superseded != nil {
			if _, err := j.Record(marketevents.Entry{
				Kind:      domain.EventListingCancelled,
				ListingID: marketevents.ID(superseded.ListingID),
				Asset:     &asset,
				Actor:     holder,
				Data:      map[string]interface{}{"reason": "superseded", "offer_id": o.OfferID},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Uint64("offer_id", id).Str("holder", holder).Msg("offer acceptance rejected")
		return nil, err
	}
	t := receipt.Trades[0]
	log.Info().Uint64("offer_id", id).Str("buyer", t.Buyer).Str("seller", t.Seller).
		Str("price", t.Price.String()).Str("fee", t.FeeAmount.String()).Msg("offer accepted")
	return receipt, nil
}
