package marketevents

import (
	"context"
	"strconv"

	eventsvc "nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/interfaces/handlers/marketerr"
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	defaultRecent = 50
	maxRecent     = 500
)

// RecentSource serves the capped history kept by the event publisher.
type RecentSource interface {
	Recent(ctx context.Context, n int64) ([]domain.MarketEvent, error)
}

type Handlers struct {
	Service *eventsvc.Service
	Recent  RecentSource
}

// GET /api/v1/market-events/get-events?kind=&listing_id=&offer_id=&actor=&after=&limit=
func (h *Handlers) GetEvents(c *fiber.Ctx) error {
	q := eventsvc.Query{
		Kind:  c.Query("kind"),
		Actor: c.Query("actor"),
		Limit: c.QueryInt("limit", 0),
	}
	var ok bool
	if q.ListingID, ok = optionalID(c, "listing_id"); !ok {
		return response.BadRequest(c, "Invalid listing_id")
	}
	if q.OfferID, ok = optionalID(c, "offer_id"); !ok {
		return response.BadRequest(c, "Invalid offer_id")
	}
	if after := c.Query("after"); after != "" {
		seq, err := strconv.ParseUint(after, 10, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid after")
		}
		q.AfterSeq = seq
	}

	events, err := h.Service.GetEvents(c.UserContext(), q)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	meta := response.Page{Count: len(events), Limit: q.Limit}
	return response.Success(c, "Market events fetched successfully", fiber.Map{"events": events}, meta)
}

// GET /api/v1/market-events/recent?limit=
func (h *Handlers) GetRecent(c *fiber.Ctx) error {
	if h.Recent == nil {
		return response.Error(c, "Event stream not configured", fiber.StatusServiceUnavailable, nil)
	}
	n := c.QueryInt("limit", defaultRecent)
	if n <= 0 || n > maxRecent {
		return response.BadRequest(c, "limit must be between 1 and 500")
	}
	events, err := h.Recent.Recent(c.UserContext(), int64(n))
	if err != nil {
		log.Error().Err(err).Msg("read recent market events")
		return response.Error(c, "Event stream unavailable", fiber.StatusServiceUnavailable, nil)
	}
	return response.Success(c, "Recent market events fetched successfully", fiber.Map{"events": events}, response.Page{Count: len(events)})
}

func optionalID(c *fiber.Ctx, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}
