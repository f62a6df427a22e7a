package admin

import (
	adminsvc "nftmarket-backend/internal/application/admin"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/interfaces/handlers/marketerr"
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *adminsvc.Service
}

// GET /api/v1/admin/settings
func (h *Handlers) Settings(c *fiber.Ctx) error {
	settings, err := h.Service.GetSettings(c.UserContext())
	if err != nil {
		return marketerr.Respond(c, err)
	}
	return response.Success(c, "Settings fetched successfully", settings, nil)
}

// PATCH /api/v1/admin/fee-rate
func (h *Handlers) SetFeeRate(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		FeeRatePoints *int `json:"fee_rate_points"`
	}
	if err := c.BodyParser(&body); err != nil || body.FeeRatePoints == nil {
		return response.BadRequest(c, "fee_rate_points is required")
	}
	if err := h.Service.SetFeeRate(c.UserContext(), caller, *body.FeeRatePoints); err != nil {
		return marketerr.Respond(c, err)
	}
	return h.Settings(c)
}

// PATCH /api/v1/admin/fee-recipient
func (h *Handlers) SetFeeRecipient(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		FeeRecipient string `json:"fee_recipient"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.Service.SetFeeRecipient(c.UserContext(), caller, body.FeeRecipient); err != nil {
		return marketerr.Respond(c, err)
	}
	return h.Settings(c)
}

// PATCH /api/v1/admin/denominations
func (h *Handlers) SetDenomination(c *fiber.Ctx) error {
	caller, ok := marketerr.Caller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Denomination string `json:"denomination"`
		Allowed      *bool  `json:"allowed"`
	}
	if err := c.BodyParser(&body); err != nil || body.Allowed == nil {
		return response.BadRequest(c, "denomination and allowed are required")
	}
	denom, err := domain.ParseDenomination(body.Denomination)
	if err != nil {
		return marketerr.Respond(c, err)
	}
	if err := h.Service.SetDenomination(c.UserContext(), caller, denom, *body.Allowed); err != nil {
		return marketerr.Respond(c, err)
	}
	return h.Settings(c)
}
