package database

import (
	"context"
	"errors"
	"testing"

	"nftmarket-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestNextID_Monotonic(t *testing.T) {
	db := setupDB(t)
	for want := uint64(1); want <= 3; want++ {
		got, err := NextID(db, SeqListing)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	other, err := NextID(db, SeqOffer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), other)
}

func TestTransaction_JoinsOuterTx(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := Transaction(ctx, db, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := NextID(tx, SeqListing); err != nil {
			return err
		}
		return Transaction(ctx, db, func(ctx context.Context, inner *gorm.DB) error {
			assert.Same(t, tx, inner)
			assert.Same(t, tx, Conn(ctx, db))
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&domain.Sequence{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
