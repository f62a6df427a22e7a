package listings

import (
	"context"
	"errors"
	"fmt"

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

// Listing modes.
const (
	ModeHolder = "holder"
	ModeAdmin  = "admin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Service struct {
	Runner    *market.Runner
	Custodian domain.AssetCustodian
	Admin     *admin.Service
	// Operator is the engine account that moves assets on settlement.
	Operator string
	Mode     string
}

type CreateInput struct {
	Seller       string
	Asset        domain.AssetRef
	Denomination domain.Denomination
	Price        decimal.Decimal
}

type BatchInput struct {
	Seller       string
	Contracts    []string
	AssetIDs     []string
	Denomination domain.Denomination
	Prices       []decimal.Decimal
}

func (s *Service) db() *gorm.DB {
	return s.Runner.DB
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Listing, error) {
	var created *domain.Listing
	err := s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		l, err := s.create(ctx, tx, j, in)
		created = l
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("listing_id", created.ListingID).Str("asset", created.Asset().String()).Str("seller", created.Seller).Msg("listing created")
	return created, nil
}

// CreateBatch lists several assets of one seller in one call. Nothing is listed unless every
// entry is valid.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput) ([]domain.Listing, error) {
	n := len(in.Contracts)
	if n == 0 || n != len(in.AssetIDs) || n != len(in.Prices) {
		return nil, market.ErrArrayLengthMismatch
	}
	out := make([]domain.Listing, 0, n)
	err := s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		for i := 0; i < n; i++ {
			asset, err := parseAsset(in.Contracts[i], in.AssetIDs[i])
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			l, err := s.create(ctx, tx, j, CreateInput{
				Seller:       in.Seller,
				Asset:        asset,
				Denomination: in.Denomination,
				Price:        in.Prices[i],
			})
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			out = append(out, *l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(out)).Str("seller", domain.NormalizeAddress(in.Seller)).Msg("listing batch created")
	return out, nil
}

func parseAsset(contract, assetID string) (domain.AssetRef, error) {
	if !validation.IsValidAddress(contract) || !validation.IsValidTokenID(assetID) {
		return domain.AssetRef{}, market.ErrInvalidAsset
	}
	return domain.NewAssetRef(contract, assetID), nil
}

func (s *Service) create(ctx context.Context, tx *gorm.DB, j *marketevents.Journal, in CreateInput) (*domain.Listing, error) {
	if !validation.IsValidAddress(in.Seller) {
		return nil, market.ErrInvalidAccount
	}
	seller := domain.NormalizeAddress(in.Seller)
	if !validation.IsValidAddress(in.Asset.Contract) || !validation.IsValidTokenID(in.Asset.TokenID) {
		return nil, market.ErrInvalidAsset
	}
	asset := domain.NewAssetRef(in.Asset.Contract, in.Asset.TokenID)
	if !validation.IsPositiveInteger(in.Price) {
		return nil, market.ErrInvalidPrice
	}
	if s.Mode == ModeAdmin && !s.Admin.IsAdmin(seller) {
		return nil, market.ErrNotAdmin
	}
	if in.Denomination.IsZero() {
		return nil, market.ErrDenominationNotAllowed
	}
	allowed, err := admin.IsAllowed(ctx, tx, in.Denomination)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, market.ErrDenominationNotAllowed
	}

	owner, err := s.Custodian.OwnerOf(ctx, asset)
	if err != nil && !errors.Is(err, domain.ErrUnknownAsset) {
		return nil, fmt.Errorf("Failed to read asset owner: %w", err)
	}
	if err != nil || domain.NormalizeAddress(owner) != seller {
		return nil, market.ErrNotAssetHolder
	}
	authorized, err := s.Custodian.IsTransferAuthorized(ctx, seller, s.Operator, asset)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, market.ErrTransferNotAuthorized
	}

	var existing int64
	if err := tx.Model(&domain.AssetListing{}).
		Where("asset_contract = ? AND asset_id = ?", asset.Contract, asset.TokenID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, market.ErrAlreadyListed
	}

	id, err := database.NextID(tx, database.SeqListing)
	if err != nil {
		return nil, fmt.Errorf("Failed to allocate listing id: %w", err)
	}
	listing := &domain.Listing{
		ListingID:     id,
		Seller:        seller,
		AssetContract: asset.Contract,
		AssetID:       asset.TokenID,
		Denomination:  in.Denomination,
		Price:         in.Price,
		Active:        true,
	}
	if err := tx.Create(listing).Error; err != nil {
		return nil, fmt.Errorf("Failed to create listing: %w", err)
	}
	if err := tx.Create(&domain.AssetListing{
		AssetContract: asset.Contract,
		AssetID:       asset.TokenID,
		ListingID:     id,
	}).Error; err != nil {
		return nil, fmt.Errorf("Failed to index listing: %w", err)
	}
	_, err = j.Record(marketevents.Entry{
		Kind:      domain.EventListed,
		ListingID: marketevents.ID(id),
		Asset:     &asset,
		Actor:     seller,
		Data: map[string]interface{}{
			"seller":       seller,
			"denomination": in.Denomination.String(),
			"price":        in.Price.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// loadOwned loads an active listing inside tx and checks caller is its seller.
func loadOwned(tx *gorm.DB, id uint64, caller string) (*domain.Listing, error) {
	var l domain.Listing
	if err := tx.Where("listing_id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrListingNotFound
		}
		return nil, err
	}
	if !l.Active {
		return nil, market.ErrNotActive
	}
	if domain.NormalizeAddress(caller) != l.Seller {
		return nil, market.ErrNotSeller
	}
	return &l, nil
}

func (s *Service) Cancel(ctx context.Context, id uint64, caller string) error {
	return s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		l, err := loadOwned(tx, id, caller)
		if err != nil {
			return err
		}
		if err := Retire(tx, l); err != nil {
			return err
		}
		asset := l.Asset()
		_, err = j.Record(marketevents.Entry{
			Kind:      domain.EventListingCancelled,
			ListingID: marketevents.ID(l.ListingID),
			Asset:     &asset,
			Actor:     l.Seller,
			Data:      map[string]interface{}{"reason": "cancelled"},
		})
		return err
	})
}

func (s *Service) UpdatePrice(ctx context.Context, id uint64, caller string, newPrice decimal.Decimal) (*domain.Listing, error) {
	if !validation.IsPositiveInteger(newPrice) {
		return nil, market.ErrInvalidPrice
	}
	var updated *domain.Listing
	err := s.Runner.Run(ctx, func(ctx context.Context, tx *gorm.DB, j *marketevents.Journal) error {
		l, err := loadOwned(tx, id, caller)
		if err != nil {
			return err
		}
		old := l.Price
		if err := tx.Model(l).Update("price", newPrice).Error; err != nil {
			return fmt.Errorf("Failed to update listing price: %w", err)
		}
		l.Price = newPrice
		updated = l
		asset := l.Asset()
		_, err = j.Record(marketevents.Entry{
			Kind:      domain.EventListingUpdated,
			ListingID: marketevents.ID(l.ListingID),
			Asset:     &asset,
			Actor:     l.Seller,
			Data:      map[string]interface{}{"old_price": old.String(), "new_price": newPrice.String()},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Retire deactivates l and clears its asset index entry inside tx.
// The update is conditional on the row still being active, so a listing retired by a concurrent
// transaction fails with ErrNotActive.
func Retire(tx *gorm.DB, l *domain.Listing) error {
	res := tx.Model(&domain.Listing{}).
		Where("listing_id = ? AND active = ?", l.ListingID, true).
		Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("Failed to deactivate listing: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return market.ErrNotActive
	}
	if err := tx.Where("asset_contract = ? AND asset_id = ? AND listing_id = ?", l.AssetContract, l.AssetID, l.ListingID).
		Delete(&domain.AssetListing{}).Error; err != nil {
		return fmt.Errorf("Failed to clear listing index: %w", err)
	}
	l.Active = false
	return nil
}

// ActiveForAsset returns the active listing indexed for asset inside tx, or nil.
func ActiveForAsset(tx *gorm.DB, asset domain.AssetRef) (*domain.Listing, error) {
	var idx domain.AssetListing
	err := tx.Where("asset_contract = ? AND asset_id = ?", asset.Contract, asset.TokenID).First(&idx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var l domain.Listing
	if err := tx.Where("listing_id = ?", idx.ListingID).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*domain.Listing, error) {
	var l domain.Listing
	if err := database.Conn(ctx, s.db()).Where("listing_id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetByAsset returns the active listing for asset, or ErrListingNotFound.
func (s *Service) GetByAsset(ctx context.Context, asset domain.AssetRef) (*domain.Listing, error) {
	asset = domain.NewAssetRef(asset.Contract, asset.TokenID)
	l, err := ActiveForAsset(database.Conn(ctx, s.db()), asset)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, market.ErrListingNotFound
	}
	return l, nil
}

func (s *Service) IsListed(ctx context.Context, asset domain.AssetRef) (bool, error) {
	_, err := s.GetByAsset(ctx, asset)
	if errors.Is(err, market.ErrListingNotFound) {
		return false, nil
	}
	return err == nil, err
}

type Page struct {
	Limit  int
	Offset int
	Seller string
}

func (s *Service) ListActive(ctx context.Context, p Page) ([]domain.Listing, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	q := database.Conn(ctx, s.db()).Where("active = ?", true)
	if p.Seller != "" {
		q = q.Where("seller = ?", domain.NormalizeAddress(p.Seller))
	}
	var listings []domain.Listing
	if err := q.Order("listing_id DESC").Limit(limit).Offset(p.Offset).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %v", err)
	}
	return listings, nil
}
