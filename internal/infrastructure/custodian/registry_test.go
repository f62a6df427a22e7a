package custodian

import (
	"context"
	"testing"

	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	alice      = "0x00000000000000000000000000000000000000a1"
	bob        = "0x00000000000000000000000000000000000000b0"
	market     = "0x00000000000000000000000000000000000000ee"
	collection = "0x0000000000000000000000000000000000000c01"
)

func setupRegistry(t *testing.T) (*Registry, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return &Registry{DB: db}, db
}

func TestRegistry_MintAndOwnerOf(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	asset := domain.NewAssetRef(collection, "1")

	_, err := r.OwnerOf(ctx, asset)
	assert.Equal(t, ErrUnknownAsset, err)

	require.NoError(t, r.Mint(ctx, asset, alice))
	owner, err := r.OwnerOf(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	assert.Equal(t, ErrAlreadyMinted, r.Mint(ctx, asset, bob))
}

func TestRegistry_TransferRequiresApproval(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	asset := domain.NewAssetRef(collection, "7")
	require.NoError(t, r.Mint(ctx, asset, alice))

	ok, err := r.IsTransferAuthorized(ctx, alice, market, asset)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ErrNotApproved, r.Transfer(ctx, market, alice, bob, asset))

	require.NoError(t, r.SetApprovalForAll(ctx, alice, market, collection, true))
	ok, err = r.IsTransferAuthorized(ctx, alice, market, asset)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Transfer(ctx, market, alice, bob, asset))
	owner, err := r.OwnerOf(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	// operator approval is per holder; bob never approved the market
	ok, err = r.IsTransferAuthorized(ctx, bob, market, asset)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_TokenApprovalClearedOnTransfer(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	asset := domain.NewAssetRef(collection, "9")
	require.NoError(t, r.Mint(ctx, asset, alice))
	require.NoError(t, r.Approve(ctx, alice, asset, market))

	require.NoError(t, r.Transfer(ctx, market, alice, bob, asset))
	assert.Equal(t, ErrNotOwner, r.Transfer(ctx, market, alice, bob, asset))

	ok, err := r.IsTransferAuthorized(ctx, bob, market, asset)
	require.NoError(t, err)
	assert.False(t, ok)
}

// changeOwnerBeforeNextUpdate hands asset to owner just before the next ownership UPDATE runs,
// on the same connection, as a transaction committed in between read and write would.
func changeOwnerBeforeNextUpdate(t *testing.T, db *gorm.DB, asset domain.AssetRef, owner string) {
	done := false
	err := db.Callback().Update().Before("gorm:update").Register("test:change_owner", func(tx *gorm.DB) {
		if done || tx.Statement.Table != "asset_ownerships" {
			return
		}
		done = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE asset_ownerships SET owner = ? WHERE asset_contract = ? AND asset_id = ?", owner, asset.Contract, asset.TokenID).Error)
	})
	require.NoError(t, err)
}

func TestRegistry_TransferRequiresOwnerAtWriteTime(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()
	carol := "0x00000000000000000000000000000000000000c0"
	asset := domain.NewAssetRef(collection, "3")
	require.NoError(t, r.Mint(ctx, asset, alice))
	require.NoError(t, r.SetApprovalForAll(ctx, alice, market, collection, true))

	changeOwnerBeforeNextUpdate(t, db, asset, carol)
	assert.Equal(t, ErrNotOwner, r.Transfer(ctx, market, alice, bob, asset))

	owner, err := r.OwnerOf(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, carol, owner)
}
