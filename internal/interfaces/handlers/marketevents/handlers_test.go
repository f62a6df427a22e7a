package marketevents

import (
	"context"
	"fmt"
	"testing"

	eventsvc "nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/application/markettest"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/interfaces/handlers/handlertest"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEventsApp(t *testing.T) (*fiber.App, *markettest.Fixture, *eventsvc.RedisPublisher) {
	f := markettest.New(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	pub := &eventsvc.RedisPublisher{Rdb: rdb}
	h := &Handlers{Service: f.Events, Recent: pub}
	app := handlertest.NewApp()
	app.Get("/get-events", h.GetEvents)
	app.Get("/recent", h.GetRecent)
	return app, f, pub
}

func events(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	evs, ok := handlertest.Data(t, body)["events"].([]interface{})
	require.True(t, ok)
	return evs
}

func TestGetEvents_Filters(t *testing.T) {
	app, f, _ := setupEventsApp(t)
	l := f.List("1", markettest.Alice, domain.Native(), 10)
	f.List("2", markettest.Bob, domain.Native(), 10)
	require.NoError(t, f.Listings.Cancel(f.Ctx, l.ListingID, markettest.Alice))

	// The fixture allow-lists USDC before anything else happens.
	code, body := handlertest.Do(t, app, "GET", "/get-events", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	all := events(t, body)
	require.Len(t, all, 4)
	assert.Equal(t, domain.EventPaymentDenominationUpdated, all[0].(map[string]interface{})["kind"])

	code, body = handlertest.Do(t, app, "GET", "/get-events?kind="+domain.EventListed, "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, events(t, body), 2)

	code, body = handlertest.Do(t, app, "GET", fmt.Sprintf("/get-events?listing_id=%d", l.ListingID), "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, events(t, body), 2)

	code, body = handlertest.Do(t, app, "GET", "/get-events?actor="+markettest.Bob, "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, events(t, body), 1)

	last := all[len(all)-1].(map[string]interface{})["sequence"].(float64)
	code, body = handlertest.Do(t, app, "GET", fmt.Sprintf("/get-events?after=%d", uint64(last)-1), "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, events(t, body), 1)
}

func TestGetEvents_BadQuery(t *testing.T) {
	app, _, _ := setupEventsApp(t)
	for _, q := range []string{"listing_id=x", "offer_id=-1", "after=abc", "limit=-5"} {
		code, _ := handlertest.Do(t, app, "GET", "/get-events?"+q, "", nil)
		assert.Equal(t, fiber.StatusBadRequest, code, q)
	}
}

func TestGetRecent(t *testing.T) {
	app, f, pub := setupEventsApp(t)
	all, err := f.Events.GetEvents(context.Background(), eventsvc.Query{})
	require.NoError(t, err)
	pub.Publish(context.Background(), all)

	code, body := handlertest.Do(t, app, "GET", "/recent?limit=1", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	evs := events(t, body)
	require.Len(t, evs, 1)
	assert.Equal(t, float64(all[len(all)-1].Sequence), evs[0].(map[string]interface{})["sequence"])

	code, _ = handlertest.Do(t, app, "GET", "/recent?limit=0", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	h := &Handlers{Service: f.Events}
	bare := handlertest.NewApp()
	bare.Get("/recent", h.GetRecent)
	code, _ = handlertest.Do(t, bare, "GET", "/recent", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
}
