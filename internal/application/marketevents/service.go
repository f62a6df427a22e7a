package marketevents

import (
	"context"
	"errors"

	"nftmarket-backend/internal/domain"

	"gorm.io/gorm"
)

const maxPageSize = 200

var ErrInvalidQuery = errors.New("Invalid event query")

type Service struct {
	DB *gorm.DB
}

// Query filters the event log. Zero values mean "any".
type Query struct {
	Kind      string
	ListingID *uint64
	OfferID   *uint64
	Actor     string
	AfterSeq  uint64
	Limit     int
}

// GetEvents returns events in sequence order, starting after AfterSeq.
func (s *Service) GetEvents(ctx context.Context, q Query) ([]domain.MarketEvent, error) {
	if q.Limit < 0 {
		return nil, ErrInvalidQuery
	}
	limit := q.Limit
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	db := s.DB.WithContext(ctx).Where("sequence > ?", q.AfterSeq)
	if q.Kind != "" {
		db = db.Where("kind = ?", q.Kind)
	}
	if q.ListingID != nil {
		db = db.Where("listing_id = ?", *q.ListingID)
	}
	if q.OfferID != nil {
		db = db.Where("offer_id = ?", *q.OfferID)
	}
	if q.Actor != "" {
		db = db.Where("actor = ?", domain.NormalizeAddress(q.Actor))
	}
	var events []domain.MarketEvent
	if err := db.Order("sequence ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
