package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/handler"
)

// RegisterUsers registers the account endpoints under /users.  Register,
// login and refresh need no access token; the refresh token itself is
// checked by the handler.
func RegisterUsers(api *echo.Group, h *handler.UserHandler, required, optional echo.MiddlewareFunc) {
	g := api.Group("/users")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh-token", h.RefreshToken)
	g.GET("/c/:username", h.ChannelProfile, optional)

	g.POST("/logout", h.Logout, required)
	g.GET("/current-user", h.CurrentUser, required)
	g.POST("/change-password", h.ChangePassword, required)
	g.PATCH("/update-account", h.UpdateAccount, required)
	g.PATCH("/avatar", h.UpdateAvatar, required)
	g.PATCH("/cover-image", h.UpdateCoverImage, required)
	g.GET("/history", h.WatchHistory, required)
}
