package trading

import (
	"testing"
	"time"

	"nftmarket-backend/internal/application/markettest"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTradingApp(t *testing.T) (*fiber.App, *markettest.Fixture) {
	f := markettest.New(t)
	h := &Handlers{Service: f.Settlement}
	app := handlertest.NewApp()
	app.Post("/purchase", h.Purchase)
	app.Post("/purchase-batch", h.PurchaseBatch)
	app.Post("/accept-offer", h.AcceptOffer)
	return app, f
}

func TestPurchase_NativeWithRefund(t *testing.T) {
	app, f := setupTradingApp(t)
	l := f.List("1", markettest.Alice, domain.Native(), 1000)
	f.Fund(domain.Native(), markettest.Bob, 1500)

	code, body := handlertest.Do(t, app, "POST", "/purchase", markettest.Bob, map[string]interface{}{
		"listing_id": l.ListingID,
		"value":      "1200",
	})
	require.Equal(t, fiber.StatusOK, code, body)
	data := handlertest.Data(t, body)
	assert.Equal(t, "200", data["refunded"])
	trades := data["trades"].([]interface{})
	require.Len(t, trades, 1)
	trade := trades[0].(map[string]interface{})
	assert.Equal(t, "975", trade["seller_amount"])
	assert.Equal(t, "25", trade["fee_amount"])

	assert.Equal(t, markettest.Bob, f.Owner(markettest.Asset("1")))
	assert.True(t, f.Balance(domain.Native(), markettest.Bob).Equal(markettest.Amount(500)))
}

func TestPurchase_ErrorStatuses(t *testing.T) {
	app, f := setupTradingApp(t)
	l := f.List("1", markettest.Alice, domain.Native(), 1000)
	f.Fund(domain.Native(), markettest.Bob, 1500)

	code, _ := handlertest.Do(t, app, "POST", "/purchase", "", map[string]interface{}{"listing_id": l.ListingID})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = handlertest.Do(t, app, "POST", "/purchase", markettest.Bob, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body := handlertest.Do(t, app, "POST", "/purchase", markettest.Bob, map[string]interface{}{"listing_id": l.ListingID, "value": "999"})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Insufficient payment", handlertest.ErrorMessage(body))

	code, _ = handlertest.Do(t, app, "POST", "/purchase", markettest.Alice, map[string]interface{}{"listing_id": l.ListingID, "value": "1000"})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = handlertest.Do(t, app, "POST", "/purchase", markettest.Bob, map[string]interface{}{"listing_id": 404, "value": "1000"})
	assert.Equal(t, fiber.StatusConflict, code)

	// Bob never approved the engine for USDC, so the ledger refuses the pull.
	tl := f.List("2", markettest.Carol, f.USDC(), 100)
	code, body = handlertest.Do(t, app, "POST", "/purchase", markettest.Bob, map[string]interface{}{"listing_id": tl.ListingID})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "error", body["status"])
}

func TestPurchaseBatch(t *testing.T) {
	app, f := setupTradingApp(t)
	a := f.List("1", markettest.Alice, domain.Native(), 300)
	b := f.List("2", markettest.Carol, f.USDC(), 400)
	f.Fund(domain.Native(), markettest.Bob, 300)
	f.Fund(f.USDC(), markettest.Bob, 400)

	code, _ := handlertest.Do(t, app, "POST", "/purchase-batch", markettest.Bob, map[string]interface{}{"listing_ids": []uint64{}})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body := handlertest.Do(t, app, "POST", "/purchase-batch", markettest.Bob, map[string]interface{}{
		"listing_ids": []uint64{a.ListingID, b.ListingID},
		"value":       "300",
	})
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Len(t, handlertest.Data(t, body)["trades"], 2)
	assert.Equal(t, float64(2), body["metadata"].(map[string]interface{})["count"])
	assert.Equal(t, markettest.Bob, f.Owner(markettest.Asset("2")))
}

func TestAcceptOffer(t *testing.T) {
	app, f := setupTradingApp(t)
	asset := f.MintApproved("5", markettest.Alice)
	o := f.Offer(asset, markettest.Bob, 800, time.Hour)

	code, _ := handlertest.Do(t, app, "POST", "/accept-offer", markettest.Carol, map[string]interface{}{"offer_id": o.OfferID})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := handlertest.Do(t, app, "POST", "/accept-offer", markettest.Alice, map[string]interface{}{"offer_id": o.OfferID})
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, markettest.Bob, f.Owner(asset))
	assert.True(t, f.Balance(f.USDC(), markettest.Alice).Equal(markettest.Amount(780)))

	code, _ = handlertest.Do(t, app, "POST", "/accept-offer", markettest.Alice, map[string]interface{}{"offer_id": o.OfferID})
	assert.Equal(t, fiber.StatusConflict, code)
}

func TestAcceptOffer_Expired(t *testing.T) {
	app, f := setupTradingApp(t)
	asset := f.MintApproved("6", markettest.Alice)
	o := f.Offer(asset, markettest.Bob, 800, time.Hour)
	f.Advance(time.Hour + time.Second)

	code, body := handlertest.Do(t, app, "POST", "/accept-offer", markettest.Alice, map[string]interface{}{"offer_id": o.OfferID})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Offer expired", handlertest.ErrorMessage(body))
}
