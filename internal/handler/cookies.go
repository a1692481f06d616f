package handler

import (
	"net/http"
	"time"

	"github.com/iliyamo/streamhub/internal/middleware"
	"github.com/iliyamo/streamhub/internal/service"
)

// RefreshCookie carries the refresh token for browser clients.
const RefreshCookie = "refreshToken"

func authCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func setAuthCookies(w http.ResponseWriter, t service.Tokens, secure bool) {
	http.SetCookie(w, authCookie(middleware.AccessCookie, t.AccessToken, t.AccessExpires, secure))
	http.SetCookie(w, authCookie(RefreshCookie, t.RefreshToken, t.RefreshExpires, secure))
}

func clearAuthCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{middleware.AccessCookie, RefreshCookie} {
		ck := authCookie(name, "", time.Unix(0, 0), secure)
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}
