package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/logging"
	"github.com/iliyamo/streamhub/internal/service"
)

// apiResponse is the success envelope shared by every endpoint.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the failure envelope.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

func respond(c echo.Context, status int, data any, msg string) error {
	if data == nil {
		data = struct{}{}
	}
	return c.JSON(status, apiResponse{StatusCode: status, Data: data, Message: msg, Success: status < 400})
}

var kindStatus = map[service.Kind]int{
	service.KindValidation: http.StatusBadRequest,
	service.KindAuth:       http.StatusUnauthorized,
	service.KindForbidden:  http.StatusForbidden,
	service.KindNotFound:   http.StatusNotFound,
	service.KindConflict:   http.StatusConflict,
	service.KindInternal:   http.StatusInternalServerError,
}

// HTTPErrorHandler renders every error returned by handlers and middleware
// as the failure envelope.  With production set, 5xx responses carry only a
// generic message; the cause is logged either way.
func HTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		body := toAPIError(err)
		if body.StatusCode >= http.StatusInternalServerError {
			logging.FromContext(c.Request().Context()).Error("request failed", "err", err)
			if production {
				body.Message = http.StatusText(http.StatusInternalServerError)
				body.Errors = []string{}
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(body.StatusCode)
		} else {
			werr = c.JSON(body.StatusCode, body)
		}
		if werr != nil {
			logging.FromContext(c.Request().Context()).Warn("write error response", "err", werr)
		}
	}
}

func toAPIError(err error) apiError {
	out := apiError{StatusCode: http.StatusInternalServerError, Message: err.Error(), Errors: []string{}}

	var se *service.Error
	var ve validator.ValidationErrors
	var he *echo.HTTPError
	switch {
	case errors.As(err, &se):
		out.StatusCode = kindStatus[se.Kind]
		out.Message = se.Message
		if len(se.Fields) > 0 {
			out.Errors = append(out.Errors, se.Fields...)
		}
		if se.Kind == service.KindInternal && se.Err != nil {
			out.Errors = append(out.Errors, se.Err.Error())
		}
	case errors.As(err, &ve):
		out.StatusCode = http.StatusBadRequest
		out.Message = "validation failed"
		out.Errors = fieldMessages(ve)
	case errors.As(err, &he):
		out.StatusCode = he.Code
		if msg, ok := he.Message.(string); ok {
			out.Message = msg
		} else {
			out.Message = http.StatusText(he.Code)
		}
	}
	return out
}
