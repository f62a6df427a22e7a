package middleware

import (
	"nftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth rejects requests without a session user.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the raw session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentUser decodes the session user. Sessions round-trip through JSON, so the user is
// either a SessionUser set during this request or a map loaded from Redis.
func CurrentUser(c *fiber.Ctx) (SessionUser, bool) {
	switch u := GetUser(c).(type) {
	case SessionUser:
		return u, u.UserID != ""
	case map[string]interface{}:
		str := func(k string) string {
			s, _ := u[k].(string)
			return s
		}
		su := SessionUser{
			UserID:   str("user_id"),
			Address:  str("address"),
			Fullname: str("fullname"),
			Email:    str("email"),
			Role:     str("role"),
		}
		return su, su.UserID != ""
	}
	return SessionUser{}, false
}

// CallerAddress is the account address of the logged in user, or "".
func CallerAddress(c *fiber.Ctx) string {
	u, _ := CurrentUser(c)
	return u.Address
}
