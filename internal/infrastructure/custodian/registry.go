package custodian

import (
	"context"
	"errors"

	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/database"

	"gorm.io/gorm"
)

var (
	ErrUnknownAsset  = domain.ErrUnknownAsset
	ErrAlreadyMinted = errors.New("Asset already exists")
	ErrNotOwner      = errors.New("From is not the owner of the asset")
	ErrNotApproved   = errors.New("Operator is not approved for the asset")
	ErrInvalidTarget = errors.New("Invalid transfer target")
)

// Registry is a GORM-backed owner-of-record for assets with per-token approvals and
// per-collection operators. It joins the transaction carried by the context.
type Registry struct {
	DB *gorm.DB
}

var _ domain.AssetCustodian = (*Registry)(nil)

func (r *Registry) find(ctx context.Context, asset domain.AssetRef) (*domain.AssetOwnership, error) {
	var row domain.AssetOwnership
	err := database.Conn(ctx, r.DB).
		Where("asset_contract = ? AND asset_id = ?", asset.Contract, asset.TokenID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAsset
		}
		return nil, err
	}
	return &row, nil
}

func (r *Registry) OwnerOf(ctx context.Context, asset domain.AssetRef) (string, error) {
	row, err := r.find(ctx, asset)
	if err != nil {
		return "", err
	}
	return row.Owner, nil
}

// IsTransferAuthorized: the holder itself, the token's approved address, or an approved operator
// for the holder's collection may move the asset.
func (r *Registry) IsTransferAuthorized(ctx context.Context, holder, operator string, asset domain.AssetRef) (bool, error) {
	row, err := r.find(ctx, asset)
	if err != nil {
		return false, err
	}
	return r.authorized(ctx, row, holder, operator)
}

func (r *Registry) authorized(ctx context.Context, row *domain.AssetOwnership, holder, operator string) (bool, error) {
	if row.Owner != holder {
		return false, nil
	}
	if operator == holder || (row.Approved != "" && row.Approved == operator) {
		return true, nil
	}
	var approval domain.OperatorApproval
	err := database.Conn(ctx, r.DB).
		Where("owner = ? AND operator = ? AND contract = ?", holder, operator, row.AssetContract).
		First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return approval.Approved, nil
}

// Transfer moves the asset and clears its single-token approval. The write only applies while
// from is still the owner of record, so a concurrent transfer makes it fail with ErrNotOwner.
func (r *Registry) Transfer(ctx context.Context, operator, from, to string, asset domain.AssetRef) error {
	if to == "" || to == from {
		return ErrInvalidTarget
	}
	row, err := r.find(ctx, asset)
	if err != nil {
		return err
	}
	if row.Owner != from {
		return ErrNotOwner
	}
	ok, err := r.authorized(ctx, row, from, operator)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApproved
	}
	res := database.Conn(ctx, r.DB).Model(&domain.AssetOwnership{}).
		Where("asset_contract = ? AND asset_id = ? AND owner = ?", asset.Contract, asset.TokenID, from).
		Updates(map[string]interface{}{"owner": to, "approved": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrNotOwner
	}
	return nil
}

// Mint registers a new asset held by owner.
func (r *Registry) Mint(ctx context.Context, asset domain.AssetRef, owner string) error {
	if _, err := r.find(ctx, asset); err == nil {
		return ErrAlreadyMinted
	} else if !errors.Is(err, ErrUnknownAsset) {
		return err
	}
	return database.Conn(ctx, r.DB).Create(&domain.AssetOwnership{
		AssetContract: asset.Contract,
		AssetID:       asset.TokenID,
		Owner:         domain.NormalizeAddress(owner),
	}).Error
}

// Approve sets (or clears, with an empty approved) the single-token approval. Only the owner may.
func (r *Registry) Approve(ctx context.Context, owner string, asset domain.AssetRef, approved string) error {
	row, err := r.find(ctx, asset)
	if err != nil {
		return err
	}
	if row.Owner != owner {
		return ErrNotOwner
	}
	return database.Conn(ctx, r.DB).Model(&domain.AssetOwnership{}).
		Where("asset_contract = ? AND asset_id = ?", asset.Contract, asset.TokenID).
		Update("approved", domain.NormalizeAddress(approved)).Error
}

// SetApprovalForAll grants or revokes operator rights over all of owner's assets in contract.
func (r *Registry) SetApprovalForAll(ctx context.Context, owner, operator, contract string, approved bool) error {
	row := domain.OperatorApproval{
		Owner:    domain.NormalizeAddress(owner),
		Operator: domain.NormalizeAddress(operator),
		Contract: domain.NormalizeAddress(contract),
		Approved: approved,
	}
	return database.Conn(ctx, r.DB).Save(&row).Error
}
