package trading

import (
	"nftmarket-backend/internal/application/settlement"
	"nftmarket-backend/internal/interfaces/handlers/marketerr"
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *settlement.Service
}

// Value is the native currency the buyer tenders with the purchase. It is ignored when
// only token-priced listings are bought.
type purchaseRequest struct {
	ListingID uint64          `json:"listing_id"`
	Value     decimal.Decimal `json:"value"`
}

type purchaseBatchRequest struct {
	ListingIDs []uint64        `json:"listing_ids"`
	Value      decimal.Decimal `json:"value"`
}

type acceptOfferRequest struct {
	OfferID uint64 `json:"offer_id"`
}

// Purchase POST /api/v1/trading/purchase
func (h *Handlers) Purchase(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body purchaseRequest
	if err := c.BodyParser(&body); err != nil || body.ListingID == 0 {
		return response.BadRequest(c, "listing_id is required")
	}
	receipt, err := h.Service.PurchaseListing(c.UserContext(), body.ListingID, caller, body.Value)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Purchase settled", receipt, nil)
}

// PurchaseBatch POST /api/v1/trading/purchase-batch
func (h *Handlers) PurchaseBatch(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body purchaseBatchRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	receipt, err := h.Service.PurchaseBatch(c.UserContext(), body.ListingIDs, caller, body.Value)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Batch purchase settled", receipt, response.Page{Count: len(receipt.Trades)})
}

// AcceptOffer POST /api/v1/trading/accept-offer
func (h *Handlers) AcceptOffer(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body acceptOfferRequest
	if err := c.BodyParser(&body); err != nil || body.OfferID == 0 {
		return response.BadRequest(c, "offer_id is required")
	}
	receipt, err := h.Service.AcceptOffer(c.UserContext(), body.OfferID, caller)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Offer accepted", receipt, nil)
}
