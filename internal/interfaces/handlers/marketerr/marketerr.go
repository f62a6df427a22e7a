// Package marketerr maps marketplace errors onto HTTP responses.
package marketerr

import (
	"errors"
	"strconv"

	"nftmarket-backend/internal/application/market"
	"nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/middleware"
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[market.Kind]int{
	market.KindValidation:    fiber.StatusBadRequest,
	market.KindAuthorization: fiber.StatusForbidden,
	market.KindNotFound:      fiber.StatusNotFound,
	market.KindConflict:      fiber.StatusConflict,
	market.KindCollaborator:  fiber.StatusUnprocessableEntity,
}

var extraStatus = map[error]int{
	domain.ErrInvalidDenomination: fiber.StatusBadRequest,
	marketevents.ErrInvalidQuery:  fiber.StatusBadRequest,
}

// Status returns the HTTP status for err.
func Status(err error) int {
	if code, ok := kindStatus[market.KindOf(err)]; ok {
		return code
	}
	for target, code := range extraStatus {
		if errors.Is(err, target) {
			return code
		}
	}
	return fiber.StatusInternalServerError
}

// Respond writes err in the standard error envelope. Internal errors are logged and masked.
func Respond(c *fiber.Ctx, err error) error {
	code := Status(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("market request failed")
		return response.Error(c, "Internal Server Error", code, nil)
	}
	details := map[string]interface{}{}
	if cause := market.Cause(err); cause != nil {
		details["reason"] = cause.Error()
	}
	return response.Error(c, err.Error(), code, details)
}

// ParamID parses a positive uint64 route parameter.
func ParamID(c *fiber.Ctx, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}

// Caller returns the session account address.
func Caller(c *fiber.Ctx) (string, bool) {
	addr := middleware.CallerAddress(c)
	return addr, addr != ""
}
