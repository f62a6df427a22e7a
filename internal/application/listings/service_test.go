package listings_test

import (
	"context"
	"errors"
	"testing"

	"nftmarket-backend/internal/application/listings"
	"nftmarket-backend/internal/application/market"
	mt "nftmarket-backend/internal/application/markettest"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/custodian"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_AssignsMonotonicIDsAndIndexesAsset(t *testing.T) {
	f := mt.New(t)
	first := f.List("1", mt.Alice, domain.Native(), 1000)
	second := f.List("2", mt.Alice, f.USDC(), 2000)

	assert.Equal(t, uint64(1), first.ListingID)
	assert.Equal(t, uint64(2), second.ListingID)
	assert.True(t, first.Active)

	got, err := f.Listings.GetByAsset(f.Ctx, mt.Asset("1"))
	require.NoError(t, err)
	assert.Equal(t, first.ListingID, got.ListingID)

	listed, err := f.Listings.IsListed(f.Ctx, mt.Asset("3"))
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestCreate_RejectsSecondListingForSameAsset(t *testing.T) {
	f := mt.New(t)
	l := f.List("1", mt.Alice, domain.Native(), 1000)

	_, err := f.Listings.Create(f.Ctx, listings.CreateInput{
		Seller: mt.Alice, Asset: mt.Asset("1"), Denomination: domain.Native(), Price: mt.Amount(5),
	})
	assert.True(t, errors.Is(err, market.ErrAlreadyListed))

	got, err := f.Listings.GetByAsset(f.Ctx, mt.Asset("1"))
	require.NoError(t, err)
	assert.Equal(t, l.ListingID, got.ListingID)
}

func TestCreate_Validation(t *testing.T) {
	f := mt.New(t)
	asset := f.MintApproved("1", mt.Alice)
	unapproved := mt.Asset("2")
	require.NoError(t, f.Custodian.Mint(f.Ctx, unapproved, mt.Alice))

	cases := []struct {
		name string
		in   listings.CreateInput
		want error
	}{
		{"zero price", listings.CreateInput{Seller: mt.Alice, Asset: asset, Denomination: domain.Native(), Price: decimal.Zero}, market.ErrInvalidPrice},
		{"fractional price", listings.CreateInput{Seller: mt.Alice, Asset: asset, Denomination: domain.Native(), Price: decimal.RequireFromString("1.5")}, market.ErrInvalidPrice},
		{"denomination not allowed", listings.CreateInput{Seller: mt.Alice, Asset: asset, Denomination: domain.Token(mt.Carol), Price: mt.Amount(10)}, market.ErrDenominationNotAllowed},
		{"not holder", listings.CreateInput{Seller: mt.Bob, Asset: asset, Denomination: domain.Native(), Price: mt.Amount(10)}, market.ErrNotAssetHolder},
		{"unknown asset", listings.CreateInput{Seller: mt.Alice, Asset: mt.Asset("99"), Denomination: domain.Native(), Price: mt.Amount(10)}, market.ErrNotAssetHolder},
		{"engine not approved", listings.CreateInput{Seller: mt.Alice, Asset: unapproved, Denomination: domain.Native(), Price: mt.Amount(10)}, market.ErrTransferNotAuthorized},
		{"bad seller", listings.CreateInput{Seller: "alice", Asset: asset, Denomination: domain.Native(), Price: mt.Amount(10)}, market.ErrInvalidAccount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.Listings.Create(f.Ctx, tc.in)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	listed, err := f.Listings.IsListed(f.Ctx, asset)
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestCreate_RequiresOperatorApproval(t *testing.T) {
	f := mt.New(t)
	asset := mt.Asset("5")
	require.NoError(t, f.Custodian.Mint(f.Ctx, asset, mt.Alice))
	in := listings.CreateInput{Seller: mt.Alice, Asset: asset, Denomination: domain.Native(), Price: mt.Amount(10)}

	_, err := f.Listings.Create(f.Ctx, in)
	assert.True(t, errors.Is(err, market.ErrTransferNotAuthorized))

	require.NoError(t, f.Custodian.Approve(f.Ctx, mt.Alice, asset, mt.Engine))
	_, err = f.Listings.Create(f.Ctx, in)
	assert.NoError(t, err)
}

func TestCreate_AdminMode(t *testing.T) {
	f := mt.New(t, mt.WithListingMode(listings.ModeAdmin))
	asset := f.MintApproved("1", mt.Alice)

	_, err := f.Listings.Create(f.Ctx, listings.CreateInput{Seller: mt.Alice, Asset: asset, Denomination: domain.Native(), Price: mt.Amount(10)})
	assert.True(t, errors.Is(err, market.ErrNotAdmin))

	adminAsset := f.MintApproved("2", mt.Admin)
	l, err := f.Listings.Create(f.Ctx, listings.CreateInput{Seller: mt.Admin, Asset: adminAsset, Denomination: domain.Native(), Price: mt.Amount(10)})
	require.NoError(t, err)
	assert.Equal(t, mt.Admin, l.Seller)
}

func TestCreateBatch(t *testing.T) {
	f := mt.New(t)
	f.MintApproved("1", mt.Alice)
	f.MintApproved("2", mt.Alice)

	_, err := f.Listings.CreateBatch(f.Ctx, listings.BatchInput{
		Seller:    mt.Alice,
		Contracts: []string{mt.Collection, mt.Collection},
		AssetIDs:  []string{"1"},
		Prices:    []decimal.Decimal{mt.Amount(1), mt.Amount(2)},
	})
	assert.Equal(t, market.ErrArrayLengthMismatch, err)

	created, err := f.Listings.CreateBatch(f.Ctx, listings.BatchInput{
		Seller:       mt.Alice,
		Contracts:    []string{mt.Collection, mt.Collection},
		AssetIDs:     []string{"1", "2"},
		Denomination: domain.Native(),
		Prices:       []decimal.Decimal{mt.Amount(100), mt.Amount(200)},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "200", created[1].Price.String())
}

func TestCreateBatch_AllOrNothing(t *testing.T) {
	f := mt.New(t)
	f.MintApproved("1", mt.Alice)
	f.MintApproved("2", mt.Bob)

	_, err := f.Listings.CreateBatch(f.Ctx, listings.BatchInput{
		Seller:       mt.Alice,
		Contracts:    []string{mt.Collection, mt.Collection},
		AssetIDs:     []string{"1", "2"},
		Denomination: domain.Native(),
		Prices:       []decimal.Decimal{mt.Amount(100), mt.Amount(200)},
	})
	assert.True(t, errors.Is(err, market.ErrNotAssetHolder))

	listed, err := f.Listings.IsListed(f.Ctx, mt.Asset("1"))
	require.NoError(t, err)
	assert.False(t, listed)

	// ids allocated by the failed batch are rolled back with it
	l := f.List("3", mt.Alice, domain.Native(), 10)
	assert.Equal(t, uint64(1), l.ListingID)
}

func TestCancel(t *testing.T) {
	f := mt.New(t)
	l := f.List("1", mt.Alice, domain.Native(), 1000)

	assert.Equal(t, market.ErrNotSeller, f.Listings.Cancel(f.Ctx, l.ListingID, mt.Bob))
	assert.Equal(t, market.ErrListingNotFound, f.Listings.Cancel(f.Ctx, 42, mt.Alice))
	require.NoError(t, f.Listings.Cancel(f.Ctx, l.ListingID, mt.Alice))
	assert.Equal(t, market.ErrNotActive, f.Listings.Cancel(f.Ctx, l.ListingID, mt.Alice))

	got, err := f.Listings.Get(f.Ctx, l.ListingID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	_, err = f.Listings.GetByAsset(f.Ctx, mt.Asset("1"))
	assert.Equal(t, market.ErrListingNotFound, err)

	// the asset can be listed again under a new id
	again, err := f.Listings.Create(f.Ctx, listings.CreateInput{Seller: mt.Alice, Asset: mt.Asset("1"), Denomination: domain.Native(), Price: mt.Amount(7)})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), again.ListingID)
}

func TestUpdatePrice(t *testing.T) {
	f := mt.New(t)
	l := f.List("1", mt.Alice, domain.Native(), 1000)

	_, err := f.Listings.UpdatePrice(f.Ctx, l.ListingID, mt.Alice, decimal.Zero)
	assert.Equal(t, market.ErrInvalidPrice, err)
	_, err = f.Listings.UpdatePrice(f.Ctx, l.ListingID, mt.Bob, mt.Amount(5))
	assert.Equal(t, market.ErrNotSeller, err)

	updated, err := f.Listings.UpdatePrice(f.Ctx, l.ListingID, mt.Alice, mt.Amount(1500))
	require.NoError(t, err)
	assert.Equal(t, "1500", updated.Price.String())

	got, err := f.Listings.Get(f.Ctx, l.ListingID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(mt.Amount(1500)))
}

func TestListActive(t *testing.T) {
	f := mt.New(t)
	f.List("1", mt.Alice, domain.Native(), 10)
	b := f.List("2", mt.Bob, domain.Native(), 20)
	c := f.List("3", mt.Alice, domain.Native(), 30)
	require.NoError(t, f.Listings.Cancel(f.Ctx, c.ListingID, mt.Alice))

	all, err := f.Listings.ListActive(f.Ctx, listings.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bobs, err := f.Listings.ListActive(f.Ctx, listings.Page{Seller: mt.Bob})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, b.ListingID, bobs[0].ListingID)
}

func TestMutationsAreJournaled(t *testing.T) {
	f := mt.New(t)
	l := f.List("1", mt.Alice, domain.Native(), 10)
	_, err := f.Listings.UpdatePrice(f.Ctx, l.ListingID, mt.Alice, mt.Amount(11))
	require.NoError(t, err)
	require.NoError(t, f.Listings.Cancel(f.Ctx, l.ListingID, mt.Alice))

	assert.Equal(t, []string{
		domain.EventPaymentDenominationUpdated,
		domain.EventListed,
		domain.EventListingUpdated,
		domain.EventListingCancelled,
	}, f.Published.Kinds())
}

type unreachableCustodian struct {
	*custodian.Registry
	err error
}

func (c *unreachableCustodian) OwnerOf(ctx context.Context, asset domain.AssetRef) (string, error) {
	return "", c.err
}

func TestCreate_SurfacesCustodianOutage(t *testing.T) {
	outage := errors.New("custodian rpc: connection refused")
	f := mt.New(t)
	asset := f.MintApproved("1", mt.Alice)
	f.Listings.Custodian = &unreachableCustodian{Registry: f.Custodian, err: outage}

	_, err := f.Listings.Create(f.Ctx, listings.CreateInput{Seller: mt.Alice, Asset: asset, Denomination: domain.Native(), Price: mt.Amount(100)})
	assert.ErrorIs(t, err, outage)
	assert.NotErrorIs(t, err, market.ErrNotAssetHolder)
	assert.Equal(t, market.KindInternal, market.KindOf(err))

	f.Listings.Custodian = f.Custodian
	_, err = f.Listings.Create(f.Ctx, listings.CreateInput{Seller: mt.Alice, Asset: mt.Asset("99"), Denomination: domain.Native(), Price: mt.Amount(100)})
	assert.ErrorIs(t, err, market.ErrNotAssetHolder)
}

func TestCreate_TokenIDLeadingZerosNameTheSameAsset(t *testing.T) {
	f := mt.New(t)
	f.List("7", mt.Alice, domain.Native(), 100)

	padded := domain.AssetRef{Contract: mt.Collection, TokenID: "007"}
	_, err := f.Listings.Create(f.Ctx, listings.CreateInput{Seller: mt.Alice, Asset: padded, Denomination: domain.Native(), Price: mt.Amount(100)})
	assert.ErrorIs(t, err, market.ErrAlreadyListed)

	listed, err := f.Listings.IsListed(f.Ctx, padded)
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestRetire_RejectsListingAlreadyRetired(t *testing.T) {
	f := mt.New(t)
	l := f.List("1", mt.Alice, domain.Native(), 100)
	stale := *l

	require.NoError(t, listings.Retire(f.DB, l))
	assert.Equal(t, market.ErrNotActive, listings.Retire(f.DB, &stale))
}
