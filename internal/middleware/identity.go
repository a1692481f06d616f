package middleware

// identity.go holds the context key the auth middleware writes and the
// helpers that read it back.  Handlers and the rate limiter both resolve
// the caller through UserID.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo.Context key holding the authenticated user id as a
// uint64.
const UserIDKey = "user_id"

// UserID returns the authenticated user id, or false for anonymous
// requests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(UserIDKey).(uint64)
	return id, ok && id != 0
}

// userLabel renders the caller for rate-limit keys and logs.
func userLabel(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
