package database

import (
	"nftmarket-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres or a pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer-style poolers.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&domain.Account{},
		&domain.Sequence{},
		&domain.MarketSettings{},
		&domain.PaymentDenomination{},
		&domain.Listing{},
		&domain.AssetListing{},
		&domain.Offer{},
		&domain.Trade{},
		&domain.MarketEvent{},
		&domain.AssetOwnership{},
		&domain.OperatorApproval{},
		&domain.Balance{},
		&domain.Allowance{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
