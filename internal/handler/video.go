package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/service"
)

// VideoHandler serves the video feed, the video page and owner actions.
type VideoHandler struct {
	Content  *service.Content
	Composer *service.Composer
	Timeout  time.Duration
}

type publishVideoReq struct {
	Title       string  `json:"title" form:"title" validate:"required,max=200"`
	Description string  `json:"description" form:"description" validate:"required,max=5000"`
	Duration    float64 `json:"duration" form:"duration" validate:"gte=0"`
}

type updateVideoReq struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required,max=5000"`
}

// List serves GET /videos.  Query parameters: page, limit, query, sortBy,
// sortType and userId (restrict to one channel).
func (h *VideoHandler) List(c echo.Context) error {
	pr, err := pageRequest(c)
	if err != nil {
		return err
	}
	q := service.FeedQuery{
		PageRequest: pr,
		Query:       c.QueryParam("query"),
		SortBy:      strings.TrimSpace(c.QueryParam("sortBy")),
		SortType:    strings.TrimSpace(c.QueryParam("sortType")),
	}
	if raw := strings.TrimSpace(c.QueryParam("userId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
		}
		q.OwnerID = id
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	page, err := h.Composer.VideoFeed(ctx, q)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page, "videos fetched successfully")
}

// Publish serves POST /videos (multipart: videoFile, thumbnail, title,
// description, duration).
func (h *VideoHandler) Publish(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req publishVideoReq
	if err := bind(c, &req); err != nil {
		return err
	}
	video, closeVideo, err := formFile(c, "videoFile", true)
	if err != nil {
		return err
	}
	defer closeVideo()
	thumb, closeThumb, err := formFile(c, "thumbnail", true)
	if err != nil {
		return err
	}
	defer closeThumb()

	// uploads get more time than plain store calls
	ctx, cancel := withTimeout(c, 12*h.timeout())
	defer cancel()

	v, err := h.Content.PublishVideo(ctx, uid, service.PublishInput{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Video:       *video,
		Thumbnail:   *thumb,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, v, "video published successfully")
}

// Get serves GET /videos/:videoId and records the view.
func (h *VideoHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "videoId")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	d, err := h.Composer.VideoDetail(ctx, uid, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, d, "video fetched successfully")
}

// Update serves PATCH /videos/:videoId.  A thumbnail file is optional.
func (h *VideoHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "videoId")
	if err != nil {
		return err
	}
	var req updateVideoReq
	if err := bind(c, &req); err != nil {
		return err
	}
	thumb, closeThumb, err := formFile(c, "thumbnail", false)
	if err != nil {
		return err
	}
	defer closeThumb()

	ctx, cancel := withTimeout(c, 4*h.timeout())
	defer cancel()

	v, err := h.Content.UpdateVideo(ctx, uid, id, service.UpdateVideoInput{
		Title: req.Title, Description: req.Description, Thumbnail: thumb,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, v, "video updated successfully")
}

func (h *VideoHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "videoId")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Content.DeleteVideo(ctx, uid, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "video deleted successfully")
}

func (h *VideoHandler) TogglePublish(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "videoId")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	v, err := h.Content.TogglePublish(ctx, uid, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, v, "publish status toggled successfully")
}

func (h *VideoHandler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return DefaultTimeout
	}
	return h.Timeout
}
