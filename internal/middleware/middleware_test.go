package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"nftmarket-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

func withUser(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(userLocal, map[string]interface{}{
			"user_id": "u-1",
			"address": "0x00000000000000000000000000000000000000a1",
			"role":    role,
		})
		return c.Next()
	}
}

func TestSession_LoginPersistsAndLoads(t *testing.T) {
	rdb, mr := setupRedis(t)
	app := fiber.New()
	app.Use(SessionWithClient(rdb))
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{UserID: "u-1", Address: "0xabc", Role: constants.Trader})
		return c.SendString(sid)
	})
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		u, _ := CurrentUser(c)
		return c.JSON(u)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	sid := string(body)
	require.NotEmpty(t, sid)
	assert.True(t, mr.Exists(SessionRedisPrefix+sid))

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", SessionCookieName+"=s:"+sid+".sig")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var u SessionUser
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	assert.Equal(t, "0xabc", u.Address)
	assert.Equal(t, constants.Trader, u.Role)
}

func TestRequireAuth_Unauthorized(t *testing.T) {
	rdb, _ := setupRedis(t)
	app := fiber.New()
	app.Use(SessionWithClient(rdb))
	app.Get("/private", RequireAuth(), func(c *fiber.Ctx) error { return c.SendStatus(200) })

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthorizePermission(t *testing.T) {
	cases := []struct {
		role       string
		permission string
		want       int
	}{
		{constants.Trader, constants.Purchase, 200},
		{constants.Viewer, constants.Purchase, 403},
		{constants.Trader, constants.ManageMarket, 403},
		{constants.Operator, constants.ManageMarket, 200},
		{constants.Operator, "nope", 500},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Use(withUser(tc.role))
		app.Get("/", AuthorizePermission(tc.permission), func(c *fiber.Ctx) error { return c.SendStatus(200) })
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, "%s/%s", tc.role, tc.permission)
	}
}

func TestTracing_ReusesValidIncomingID(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, "5b0c3f86-3a43-4d4b-9a47-6b6b1f1f9b10")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "5b0c3f86-3a43-4d4b-9a47-6b6b1f1f9b10", resp.Header.Get(traceIDHeader))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(traceIDHeader))
	assert.Len(t, resp.Header.Get(traceIDHeader), 36)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".market.example", DevPassword: "letmein"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://app.market.example")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "https://app.market.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("dev-password", "letmein")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHealthMarker_CountsRequestsAndErrors(t *testing.T) {
	rdb, mr := setupRedis(t)
	app := fiber.New()
	app.Use(HealthMarker(rdb))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(200) })
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(500) })
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	for _, p := range []string{"/ok", "/boom", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}
	total, _ := mr.Get(KeyReqTotal)
	errs, _ := mr.Get(KeyReqErrors)
	assert.Equal(t, "2", total)
	assert.Equal(t, "1", errs)
	entries, err := mr.List(KeyErrorLog)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
