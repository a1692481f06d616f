package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/service"
)

// AccessCookie is the cookie carrying the access token for browser clients.
const AccessCookie = "accessToken"

// Authenticator verifies an access token and returns the user id it was
// issued for.  service.SessionManager implements it.
type Authenticator interface {
	Authenticate(token string) (uint64, error)
}

// JWTAuth returns an Echo middleware that requires a valid access token,
// read from the Authorization header ("Bearer <jwt>") or, failing that, the
// accessToken cookie.  The user id is stored under UserIDKey for handlers.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessToken(c)
			if raw == "" {
				return &service.Error{Kind: service.KindAuth, Message: "unauthorized request"}
			}
			id, err := auth.Authenticate(raw)
			if err != nil {
				return err
			}
			c.Set(UserIDKey, id)
			return next(c)
		}
	}
}

// OptionalJWT resolves the viewer when a valid token is present and lets
// the request through anonymously otherwise.  An invalid or expired token
// is treated like no token.
func OptionalJWT(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := accessToken(c); raw != "" {
				if id, err := auth.Authenticate(raw); err == nil {
					c.Set(UserIDKey, id)
				}
			}
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}
