// Package handlertest drives fiber handlers the way a logged in client would.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// CallerHeader carries the account address the test session is logged in as.
const CallerHeader = "X-Test-Caller"

// NewApp returns an app whose requests get a session user built from CallerHeader.
func NewApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if addr := c.Get(CallerHeader); addr != "" {
			c.Locals("user", map[string]interface{}{
				"user_id": "test-" + addr,
				"address": addr,
				"role":    "trader",
			})
		}
		return c.Next()
	})
	return app
}

// Do sends body as JSON (nil for none) and decodes the response envelope.
func Do(t testing.TB, app *fiber.App, method, path, caller string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// Data returns the "data" object of a success envelope.
func Data(t testing.TB, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", body["data"])
	return data
}

// ErrorMessage returns error.message of an error envelope.
func ErrorMessage(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	msg, _ := e["message"].(string)
	return msg
}
