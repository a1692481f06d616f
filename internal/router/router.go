package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/streamhub/internal/handler"
	"github.com/iliyamo/streamhub/internal/middleware"
)

// APIPrefix is the mount point of every versioned endpoint.
const APIPrefix = "/api/v1"

// Handlers groups everything the route table needs.
type Handlers struct {
	Users      *handler.UserHandler
	Videos     *handler.VideoHandler
	Comments   *handler.CommentHandler
	Engagement *handler.EngagementHandler
	Auth       middleware.Authenticator
	DB         handler.Pinger

	// MediaDir, when set, is served under MediaURL for locally stored uploads.
	MediaDir string
	MediaURL string
}

// RegisterRoutes registers the operational endpoints and the whole API on e.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	// Probes and scraping stay outside the versioned API.
	e.GET("/healthz", handler.Health(h.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if h.MediaDir != "" && h.MediaURL != "" {
		e.Static(h.MediaURL, h.MediaDir)
	}

	api := e.Group(APIPrefix)
	required := middleware.JWTAuth(h.Auth)
	optional := middleware.OptionalJWT(h.Auth)

	RegisterUsers(api, h.Users, required, optional)
	RegisterVideos(api, h.Videos, required, optional)
	RegisterComments(api, h.Comments, required)
	RegisterEngagement(api, h.Engagement, required)
}
