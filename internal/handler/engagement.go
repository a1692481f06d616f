package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/service"
)

// EngagementHandler serves like and subscription toggles and the lists
// built from those edges.
type EngagementHandler struct {
	Ledger   *service.Ledger
	Composer *service.Composer
	Timeout  time.Duration
}

// ToggleSubscription serves POST /subscription/:channelId/toggle.
func (h *EngagementHandler) ToggleSubscription(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	channelID, err := pathID(c, "channelId")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Ledger.ToggleSubscription(ctx, uid, channelID)
	if err != nil {
		return err
	}
	msg := "unsubscribed successfully"
	if res.Subscribed {
		msg = "subscribed successfully"
	}
	return respond(c, http.StatusOK, res, msg)
}

// ToggleVideoLike serves POST /like/video/:videoId/toggle.
func (h *EngagementHandler) ToggleVideoLike(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	videoID, err := pathID(c, "videoId")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Ledger.ToggleVideoLike(ctx, uid, videoID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res, likeMessage(res.Liked, "video"))
}

// ToggleCommentLike serves POST /like/comment/:commentId/toggle.
func (h *EngagementHandler) ToggleCommentLike(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Ledger.ToggleCommentLike(ctx, uid, commentID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res, likeMessage(res.Liked, "comment"))
}

func likeMessage(liked bool, what string) string {
	if liked {
		return what + " liked successfully"
	}
	return what + " unliked successfully"
}

// LikedVideos serves GET /like/videos.
func (h *EngagementHandler) LikedVideos(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	pr, err := pageRequest(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	page, err := h.Composer.LikedVideos(ctx, uid, pr)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page, "liked videos fetched successfully")
}

// ChannelSubscribers serves GET /subscription/c/:channelId.
func (h *EngagementHandler) ChannelSubscribers(c echo.Context) error {
	channelID, err := pathID(c, "channelId")
	if err != nil {
		return err
	}
	pr, err := pageRequest(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	page, err := h.Composer.ChannelSubscribers(ctx, channelID, pr)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page, "subscribers fetched successfully")
}

// SubscribedChannels serves GET /subscription/u/:subscriberId.
func (h *EngagementHandler) SubscribedChannels(c echo.Context) error {
	subscriberID, err := pathID(c, "subscriberId")
	if err != nil {
		return err
	}
	pr, err := pageRequest(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	page, err := h.Composer.SubscribedChannels(ctx, subscriberID, pr)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page, "subscribed channels fetched successfully")
}
