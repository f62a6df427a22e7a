package listings

import (
	listsvc "nftmarket-backend/internal/application/listings"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/interfaces/handlers/marketerr"
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *listsvc.Service
}

type createRequest struct {
	AssetContract string          `json:"asset_contract"`
	AssetID       string          `json:"asset_id"`
	Denomination  string          `json:"denomination"`
	Price         decimal.Decimal `json:"price"`
}

type batchRequest struct {
	AssetContracts []string          `json:"asset_contracts"`
	AssetIDs       []string          `json:"asset_ids"`
	Denomination   string            `json:"denomination"`
	Prices         []decimal.Decimal `json:"prices"`
}

type updatePriceRequest struct {
	ListingID uint64          `json:"listing_id"`
	Price     decimal.Decimal `json:"price"`
}

type cancelRequest struct {
	ListingID uint64 `json:"listing_id"`
}

// POST /api/v1/listings/create-listing
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AssetContract == "" || req.AssetID == "" {
		return response.BadRequest(c, "asset_contract and asset_id are required")
	}
	denom, err := domain.ParseDenomination(req.Denomination)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	listing, err := h.Service.Create(c.UserContext(), listsvc.CreateInput{
		Seller:       caller,
		Asset:        domain.NewAssetRef(req.AssetContract, req.AssetID),
		Denomination: denom,
		Price:        req.Price,
	})
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// POST /api/v1/listings/create-batch
func (h *Handlers) CreateBatch(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	denom, err := domain.ParseDenomination(req.Denomination)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	created, err := h.Service.CreateBatch(c.UserContext(), listsvc.BatchInput{
		Seller:       caller,
		Contracts:    req.AssetContracts,
		AssetIDs:     req.AssetIDs,
		Denomination: denom,
		Prices:       req.Prices,
	})
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.SuccessCreated(c, "Listings created successfully", created, response.Page{Count: len(created)})
}

// PUT /api/v1/listings/update-price
func (h *Handlers) UpdatePrice(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req updatePriceRequest
	if err := c.BodyParser(&req); err != nil || req.ListingID == 0 {
		return response.BadRequest(c, "listing_id and price are required")
	}
	listing, err := h.Service.UpdatePrice(c.UserContext(), req.ListingID, caller, req.Price)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Listing price updated", listing, nil)
}

// POST /api/v1/listings/cancel-listing
func (h *Handlers) CancelListing(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req cancelRequest
	if err := c.BodyParser(&req); err != nil || req.ListingID == 0 {
		return response.BadRequest(c, "listing_id is required")
	}
	if err := h.Service.Cancel(c.UserContext(), req.ListingID, caller); err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Listing cancelled", fiber.Map{"listing_id": req.ListingID}, nil)
}

// GET /api/v1/listings/get-listing/:listing_id
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	id, ok := marketerr.ParamID(c, "listing_id")
	if !ok {
		return response.BadRequest(c, "Invalid listing_id")
	}
	listing, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// GET /api/v1/listings/by-asset/:contract/:asset_id
func (h *Handlers) GetByAsset(c *fiber.Ctx) error {
	listing, err := h.Service.GetByAsset(c.UserContext(), domain.NewAssetRef(c.Params("contract"), c.Params("asset_id")))
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// GET /api/v1/listings/get-active-listings?limit=&offset=&seller=
func (h *Handlers) GetActiveListings(c *fiber.Ctx) error {
	page := listsvc.Page{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
		Seller: c.Query("seller"),
	}
	if page.Limit < 0 || page.Offset < 0 {
		return response.BadRequest(c, "limit and offset must not be negative")
	}
	listings, err := h.Service.ListActive(c.UserContext(), page)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Active listings fetched successfully", listings, response.Page{
		Count: len(listings), Limit: page.Limit, Offset: page.Offset,
	})
}
