package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/service"
)

type CommentHandler struct {
	Content  *service.Content
	Composer *service.Composer
	Timeout  time.Duration
}

type commentReq struct {
	Content string `json:"content" form:"content" validate:"required,max=2000"`
}

// List serves GET /comment/:videoId?page&limit.
func (h *CommentHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	videoID, err := pathID(c, "videoId")
	if err != nil {
		return err
	}
	pr, err := pageRequest(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	page, err := h.Composer.CommentFeed(ctx, uid, videoID, pr)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page, "comments fetched successfully")
}

func (h *CommentHandler) Add(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	videoID, err := pathID(c, "videoId")
	if err != nil {
		return err
	}
	var req commentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	cm, err := h.Content.AddComment(ctx, uid, videoID, req.Content)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, cm, "comment added successfully")
}

func (h *CommentHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		return err
	}
	var req commentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	cm, err := h.Content.UpdateComment(ctx, uid, commentID, req.Content)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cm, "comment updated successfully")
}

func (h *CommentHandler) Delete(c echo.Context) error {
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

	if err := h.Content.DeleteComment(ctx, uid, commentID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "comment deleted successfully")
}
