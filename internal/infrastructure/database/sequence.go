package database

import (
	"nftmarket-backend/internal/domain"

	"gorm.io/gorm"
)

// Sequence names.
const (
	SeqListing     = "listing"
	SeqOffer       = "offer"
	SeqMarketEvent = "market_event"
)

// NextID allocates the next value of the named sequence inside tx. Values start at 1 and are
// never reused: a rolled back allocation is rolled back together with the row that used it.
func NextID(tx *gorm.DB, name string) (uint64, error) {
	seq := domain.Sequence{Name: name}
	if err := tx.Where(domain.Sequence{Name: name}).Attrs(domain.Sequence{NextValue: 0}).FirstOrCreate(&seq).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&domain.Sequence{}).Where("name = ?", name).
		Update("next_value", gorm.Expr("next_value + ?", 1)).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.NextValue, nil
}
