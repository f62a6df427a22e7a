package transactions

import (
	"errors"

	txsvc "nftmarket-backend/internal/application/transactions"
	"nftmarket-backend/internal/middleware"
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *txsvc.Service
}

// GET /api/v1/transactions/get-transactions
func (h *Handlers) GetTransactions(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentUser(c); !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	data, err := h.Service.ViewTransactions(c.UserContext(), middleware.CallerAddress(c))
	if errors.Is(err, txsvc.ErrAccountMissing) {
		return response.Unauthorized(c, "Account address missing from session")
	}
	if err != nil {
		log.Error().Err(err).Msg("get transactions")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Transactions fetched successfully", data, response.Page{Count: len(data)})
}
