package offers

import (
	"time"

	offersvc "nftmarket-backend/internal/application/offers"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/interfaces/handlers/marketerr"
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *offersvc.Service
}

type createRequest struct {
	AssetContract   string          `json:"asset_contract"`
	AssetID         string          `json:"asset_id"`
	Denomination    string          `json:"denomination"`
	Price           decimal.Decimal `json:"price"`
	DurationSeconds int64           `json:"duration_seconds"`
}

type cancelRequest struct {
	OfferID uint64 `json:"offer_id"`
}

// POST /api/v1/offers/create-offer
func (h *Handlers) CreateOffer(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AssetContract == "" || req.AssetID == "" || req.Denomination == "" {
		return response.BadRequest(c, "asset_contract, asset_id and denomination are required")
	}
	denom, err := domain.ParseDenomination(req.Denomination)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	offer, err := h.Service.Create(c.UserContext(), offersvc.CreateInput{
		Buyer:        caller,
		Asset:        domain.NewAssetRef(req.AssetContract, req.AssetID),
		Denomination: denom,
		Price:        req.Price,
		Duration:     time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.SuccessCreated(c, "Offer created successfully", offer, nil)
}

// POST /api/v1/offers/cancel-offer
func (h *Handlers) CancelOffer(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req cancelRequest
	if err := c.BodyParser(&req); err != nil || req.OfferID == 0 {
		return response.BadRequest(c, "offer_id is required")
	}
	if err := h.Service.Cancel(c.UserContext(), req.OfferID, caller); err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Offer cancelled", fiber.Map{"offer_id": req.OfferID}, nil)
}

// GET /api/v1/offers/get-offer/:offer_id
func (h *Handlers) GetOffer(c *fiber.Ctx) error {
	id, ok := marketerr.ParamID(c, "offer_id")
	if !ok {
		return response.BadRequest(c, "Invalid offer_id")
	}
	offer, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Offer fetched successfully", offer, nil)
}

// GET /api/v1/offers/by-asset/:contract/:asset_id
func (h *Handlers) GetByAsset(c *fiber.Ctx) error {
	offers, err := h.Service.ListForAsset(c.UserContext(), domain.NewAssetRef(c.Params("contract"), c.Params("asset_id")))
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Offers fetched successfully", offers, response.Page{Count: len(offers)})
}
