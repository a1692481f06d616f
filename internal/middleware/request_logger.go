package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/logging"
)

// RequestLogger tags each request with an id (the X-Request-ID header when
// the client sent one), puts a request-scoped logger on the context and
// writes one line per request once the handler returns.  Panics are logged
// with their stack and turned into a 500.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			start := time.Now()

			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" || len(rid) > 64 {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			logger := base.With(
				slog.String("request_id", rid),
				slog.String("method", req.Method),
				slog.String("route", c.Path()),
			)
			ctx := logging.WithRequestID(logging.WithLogger(req.Context(), logger), rid)
			c.SetRequest(req.WithContext(ctx))

			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered", "panic", r, "stack", string(debug.Stack()))
					err = echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprint(r))
				}
				if err != nil {
					// the error handler has not run yet; let it write the
					// response so the logged status is the real one
					c.Error(err)
					err = nil
				}
				status := c.Response().Status
				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				logger.Log(ctx, level, "request",
					"status", status,
					"duration_ms", time.Since(start).Milliseconds(),
					"user", userLabel(c),
					"ip", c.RealIP(),
				)
			}()
			return next(c)
		}
	}
}
