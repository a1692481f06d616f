package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/service"
)

// UserHandler serves registration, sessions and the caller's own profile.
type UserHandler struct {
	Sessions      *service.SessionManager
	Account       *service.Account
	Composer      *service.Composer
	Timeout       time.Duration
	SecureCookies bool
}

// ----- DTOs -----

type registerReq struct {
	FullName string `json:"fullName" form:"fullName" validate:"required,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Username string `json:"username" form:"username" validate:"required,max=50"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordReq struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

type updateAccountReq struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

// Register creates an account.  No tokens are issued; the client logs in next.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	u, err := h.Sessions.Register(ctx, service.RegisterInput{
		Username: req.Username, Email: req.Email, Password: req.Password, FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, u, "user registered successfully")
}

// Login verifies credentials and returns the token pair in the body and as
// cookies.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username or email is required")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Sessions.Login(ctx, login, req.Password)
	if err != nil {
		return err
	}
	setAuthCookies(c.Response(), res.Tokens, h.SecureCookies)
	return respond(c, http.StatusOK, res, "user logged in successfully")
}

// Logout drops the refresh reference and clears both cookies.
func (h *UserHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Sessions.Logout(ctx, uid); err != nil {
		return err
	}
	clearAuthCookies(c.Response(), h.SecureCookies)
	return respond(c, http.StatusOK, nil, "user logged out")
}

// RefreshToken rotates the refresh token.  The cookie wins over the body.
func (h *UserHandler) RefreshToken(c echo.Context) error {
	presented := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		presented = strings.TrimSpace(ck.Value)
	}
	if presented == "" {
		// an empty body binds to nothing and falls through to the 401 below
		var req refreshReq
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		presented = strings.TrimSpace(req.RefreshToken)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		return err
	}
	setAuthCookies(c.Response(), res.Tokens, h.SecureCookies)
	return respond(c, http.StatusOK, res, "access token refreshed")
}

func (h *UserHandler) CurrentUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	u, err := h.Account.CurrentUser(ctx, uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, "current user fetched successfully")
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Account.ChangePassword(ctx, uid, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "password changed successfully")
}

func (h *UserHandler) UpdateAccount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req updateAccountReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	u, err := h.Account.UpdateAccount(ctx, uid, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, "account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.Account.UpdateAvatar, "avatar image updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.Account.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) updateImage(c echo.Context, field string,
	update func(context.Context, uint64, service.Upload) (model.PublicUser, error), msg string,
) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	img, closeFn, err := formFile(c, field, true)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	u, err := update(ctx, uid, *img)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, msg)
}

// ChannelProfile serves GET /users/c/:username with optional auth.
func (h *UserHandler) ChannelProfile(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Composer.ChannelProfile(ctx, viewerID(c), c.Param("username"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, p, "user channel fetched successfully")
}

func (h *UserHandler) WatchHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	hist, err := h.Composer.WatchHistory(ctx, uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, hist, "watch history fetched successfully")
}
