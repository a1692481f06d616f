package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/handler"
)

// RegisterVideos registers /videos.  The feed is public with an optional
// viewer; everything else requires a session, and the owner checks happen
// in the service.
func RegisterVideos(api *echo.Group, h *handler.VideoHandler, required, optional echo.MiddlewareFunc) {
	g := api.Group("/videos")
	g.GET("", h.List, optional)
	g.POST("", h.Publish, required)
	g.GET("/:videoId", h.Get, required)
	g.PATCH("/:videoId", h.Update, required)
	g.DELETE("/:videoId", h.Delete, required)
	g.PATCH("/:videoId/toggle-publish", h.TogglePublish, required)
}

// RegisterComments registers /comment.  All routes require a session.
func RegisterComments(api *echo.Group, h *handler.CommentHandler, required echo.MiddlewareFunc) {
	g := api.Group("/comment", required)
	g.GET("/:videoId", h.List)
	g.POST("/addComment/:videoId", h.Add)
	g.PATCH("/update/:commentId", h.Update)
	g.DELETE("/delete/:commentId", h.Delete)
}

// RegisterEngagement registers the like and subscription toggles and the
// lists derived from them.
func RegisterEngagement(api *echo.Group, h *handler.EngagementHandler, required echo.MiddlewareFunc) {
	likes := api.Group("/like", required)
	likes.POST("/video/:videoId/toggle", h.ToggleVideoLike)
	likes.POST("/comment/:commentId/toggle", h.ToggleCommentLike)
	likes.GET("/videos", h.LikedVideos)

	subs := api.Group("/subscription", required)
	subs.POST("/:channelId/toggle", h.ToggleSubscription)
	subs.GET("/c/:channelId", h.ChannelSubscribers)
	subs.GET("/u/:subscriberId", h.SubscribedChannels)
}
