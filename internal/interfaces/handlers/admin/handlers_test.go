package admin

import (
	"testing"

	"nftmarket-backend/internal/application/markettest"
	"nftmarket-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminApp(t *testing.T) (*fiber.App, *markettest.Fixture) {
	f := markettest.New(t)
	h := &Handlers{Service: f.Admin}
	app := handlertest.NewApp()
	app.Get("/settings", h.Settings)
	app.Patch("/fee-rate", h.SetFeeRate)
	app.Patch("/fee-recipient", h.SetFeeRecipient)
	app.Patch("/denominations", h.SetDenomination)
	return app, f
}

func TestSettings(t *testing.T) {
	app, _ := setupAdminApp(t)
	code, body := handlertest.Do(t, app, "GET", "/settings", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	data := handlertest.Data(t, body)
	policy := data["fee_policy"].(map[string]interface{})
	assert.Equal(t, float64(markettest.FeeRate), policy["fee_rate_points"])
	assert.Equal(t, markettest.FeeSink, policy["fee_recipient"])
	assert.Equal(t, float64(1000), data["max_fee_rate_points"])
	assert.ElementsMatch(t, []interface{}{"native", markettest.USDC}, data["allowed_denominations"])
}

func TestSetFeeRate(t *testing.T) {
	app, f := setupAdminApp(t)

	code, _ := handlertest.Do(t, app, "PATCH", "/fee-rate", markettest.Alice, map[string]interface{}{"fee_rate_points": 100})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = handlertest.Do(t, app, "PATCH", "/fee-rate", markettest.Admin, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body := handlertest.Do(t, app, "PATCH", "/fee-rate", markettest.Admin, map[string]interface{}{"fee_rate_points": 1001})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Fee rate too high", handlertest.ErrorMessage(body))

	code, body = handlertest.Do(t, app, "PATCH", "/fee-rate", markettest.Admin, map[string]interface{}{"fee_rate_points": 0})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(0), handlertest.Data(t, body)["fee_policy"].(map[string]interface{})["fee_rate_points"])

	policy, err := f.Fees.Current(f.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, policy.RatePoints)
}

func TestSetFeeRecipient(t *testing.T) {
	app, _ := setupAdminApp(t)

	code, _ := handlertest.Do(t, app, "PATCH", "/fee-recipient", markettest.Admin, map[string]interface{}{"fee_recipient": "nobody"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body := handlertest.Do(t, app, "PATCH", "/fee-recipient", markettest.Admin, map[string]interface{}{"fee_recipient": markettest.Carol})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, markettest.Carol, handlertest.Data(t, body)["fee_policy"].(map[string]interface{})["fee_recipient"])
}

func TestSetDenomination(t *testing.T) {
	app, _ := setupAdminApp(t)

	code, _ := handlertest.Do(t, app, "PATCH", "/denominations", markettest.Admin, map[string]interface{}{"denomination": markettest.USDC})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = handlertest.Do(t, app, "PATCH", "/denominations", markettest.Bob, map[string]interface{}{"denomination": markettest.USDC, "allowed": false})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := handlertest.Do(t, app, "PATCH", "/denominations", markettest.Admin, map[string]interface{}{"denomination": markettest.USDC, "allowed": false})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []interface{}{"native"}, handlertest.Data(t, body)["allowed_denominations"])
}
