package handler // handler defines http handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/middleware"
	"github.com/iliyamo/streamhub/internal/service"
)

// DefaultTimeout bounds the store calls of one request when no timeout is
// configured.
const DefaultTimeout = 5 * time.Second

// getUserID returns the authenticated user id set by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, &service.Error{Kind: service.KindAuth, Message: "unauthorized request"}
}

// viewerID returns the authenticated user id or 0 for anonymous requests.
func viewerID(c echo.Context) uint64 {
	id, _ := middleware.UserID(c)
	return id
}

func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), d)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// pageRequest reads ?page and ?limit.  Missing values fall back to the
// service defaults.
func pageRequest(c echo.Context) (service.PageRequest, error) {
	var pr service.PageRequest
	for name, dst := range map[string]*int{"page": &pr.Page, "limit": &pr.Limit} {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pr, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
		}
		*dst = n
	}
	return pr, nil
}

// formFile opens a multipart file.  The returned closer is a no-op when
// the field is absent and required is false.
func formFile(c echo.Context, field string, required bool) (*service.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if !required && (errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)) {
			return nil, func() {}, nil
		}
		return nil, func() {}, echo.NewHTTPError(http.StatusBadRequest, field+" file is required")
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*service.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, echo.NewHTTPError(http.StatusBadRequest, "cannot read "+fh.Filename)
	}
	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &service.Upload{
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
