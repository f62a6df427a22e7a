package marketevents

import (
	"encoding/json"
	"fmt"

	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/database"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Journal writes market events inside the caller's transaction and remembers them so they can
// be published once the transaction commits.
type Journal struct {
	tx     *gorm.DB
	events []domain.MarketEvent
}

func NewJournal(tx *gorm.DB) *Journal {
	return &Journal{tx: tx}
}

// Entry describes one event to record.
type Entry struct {
	Kind      string
	ListingID *uint64
	OfferID   *uint64
	Asset     *domain.AssetRef
	Actor     string
	Data      map[string]interface{}
}

func (j *Journal) Record(e Entry) (*domain.MarketEvent, error) {
	seq, err := database.NextID(j.tx, database.SeqMarketEvent)
	if err != nil {
		return nil, fmt.Errorf("Failed to allocate event sequence: %w", err)
	}
	data := e.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	ev := domain.MarketEvent{
		Sequence:  seq,
		Kind:      e.Kind,
		ListingID: e.ListingID,
		OfferID:   e.OfferID,
		Actor:     e.Actor,
		EventData: datatypes.JSON(raw),
	}
	if e.Asset != nil {
		ev.AssetContract = e.Asset.Contract
		ev.AssetID = e.Asset.TokenID
	}
	if err := j.tx.Create(&ev).Error; err != nil {
		return nil, fmt.Errorf("Failed to record %s event: %w", e.Kind, err)
	}
	j.events = append(j.events, ev)
	return &ev, nil
}

// Events returns the events recorded so far, in order.
func (j *Journal) Events() []domain.MarketEvent {
	if j == nil {
		return nil
	}
	return j.events
}

// ID is a convenience for the optional id fields of Entry.
func ID(v uint64) *uint64 {
	return &v
}
