package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamhub/internal/config"
	"github.com/iliyamo/streamhub/internal/database/dbtest"
	"github.com/iliyamo/streamhub/internal/storage"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Success    bool            `json:"success"`
}

type testServer struct {
	e        *echo.Echo
	mediaDir string
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		Env:            "test",
		JWTSecret:      "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 1,
		BcryptCost:     4,
		RequestTimeout: 5 * time.Second,
		MaxPageSize:    100,
		HistoryLimit:   50,
		Storage:        config.StorageConfig{LocalDir: dir, LocalBaseURL: "/media"},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	media, err := storage.NewLocalStorage(dir, "/media")
	require.NoError(t, err)

	e := NewServer(Deps{
		Config: cfg,
		DB:     dbtest.Open(t),
		Media:  media,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &testServer{e: e, mediaDir: dir}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return s.do(t, req)
}

type session struct {
	UserID  uint64
	Access  string
	Refresh string
	Cookies []*http.Cookie
}

func (s *testServer) signup(t *testing.T, name string) session {
	t.Helper()
	rec, env := s.call(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"fullName": strings.ToUpper(name[:1]) + name[1:],
		"email":    name + "@example.com",
		"username": name,
		"password": "secret-" + name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, env.Success)

	rec, env = s.call(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"username": name,
		"password": "secret-" + name,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		User struct {
			ID uint64 `json:"id"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return session{UserID: data.User.ID, Access: data.AccessToken, Refresh: data.RefreshToken, Cookies: rec.Result().Cookies()}
}

func imagePart(w *multipart.Writer, field, filename string, body []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	h.Set("Content-Type", "image/png")
	p, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = p.Write(body)
	return err
}

func (s *testServer) publish(t *testing.T, token, title string) uint64 {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("description", "about "+title))
	require.NoError(t, w.WriteField("duration", "12.5"))
	fw, err := w.CreateFormFile("videoFile", "clip.mp4")
	require.NoError(t, err)
	_, err = fw.Write([]byte("movie bytes"))
	require.NoError(t, err)
	require.NoError(t, imagePart(w, "thumbnail", "thumb.png", []byte("png bytes")))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec, env := s.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var v struct {
		ID        uint64 `json:"id"`
		VideoFile string `json:"videoFile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.True(t, strings.HasPrefix(v.VideoFile, "/media/videos/"), v.VideoFile)
	return v.ID
}

func TestSuccessEnvelope(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.call(t, http.MethodGet, "/api/v1/videos", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "videos fetched successfully", env.Message)

	var page struct {
		Docs      []json.RawMessage `json:"docs"`
		TotalDocs int64             `json:"totalDocs"`
		Page      int               `json:"page"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.NotNil(t, page.Docs)
	assert.Empty(t, page.Docs)
	assert.Equal(t, 1, page.Page)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorEnvelopes(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.call(t, http.MethodGet, "/api/v1/users/current-user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
	assert.False(t, env.Success)
	assert.NotNil(t, env.Errors)

	rec, env = s.call(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Errors)

	alice := s.signup(t, "alice")
	rec, env = s.call(t, http.MethodGet, "/api/v1/videos/999", alice.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.StatusCode)

	rec, _ = s.call(t, http.MethodGet, "/api/v1/videos/abc", alice.Access, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.call(t, http.MethodGet, "/api/v1/videos?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterConflict(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")

	rec, env := s.call(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"fullName": "Other", "email": "other@example.com", "username": "alice", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
}

func TestLoginSetsCookies(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")

	names := map[string]*http.Cookie{}
	for _, c := range alice.Cookies {
		names[c.Name] = c
	}
	require.Contains(t, names, "accessToken")
	require.Contains(t, names, "refreshToken")
	assert.True(t, names["accessToken"].HttpOnly)
	assert.False(t, names["accessToken"].Secure)

	// the cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(names["accessToken"])
	rec, env := s.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var u struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "alice", u.Username)
	assert.NotContains(t, string(env.Data), "password")
}

func TestProductionCookiesAreSecure(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Env = "production" })
	alice := s.signup(t, "alice")
	for _, c := range alice.Cookies {
		assert.True(t, c.Secure, c.Name)
	}
}

func TestRefreshRotationRejectsReplay(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")

	rec, env := s.call(t, http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": alice.Refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var next struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.NotEqual(t, alice.Refresh, next.RefreshToken)

	rec, env = s.call(t, http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": alice.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.call(t, http.MethodGet, "/api/v1/users/current-user", next.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// a refresh token is not an access token
	rec, _ = s.call(t, http.MethodGet, "/api/v1/users/current-user", next.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshTokenRequestBody(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", strings.NewReader(`{"refreshToken":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec, env := s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", strings.NewReader(`{"refreshToken": 42}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec, _ = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.call(t, http.MethodPost, "/api/v1/users/refresh-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no token at all")

	// rejected bodies leave the session usable
	rec, _ = s.call(t, http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": alice.Refresh})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogoutClearsSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")

	rec, _ := s.call(t, http.MethodPost, "/api/v1/users/logout", alice.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value, c.Name)
	}

	rec, _ = s.call(t, http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": alice.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEngagementScenario(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	vid := s.publish(t, alice.Access, "first upload")
	videoPath := fmt.Sprintf("/api/v1/videos/%d", vid)

	// bob subscribes to alice and likes her video
	rec, env := s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/subscription/%d/toggle", alice.UserID), bob.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "subscribed successfully", env.Message)

	rec, env = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/like/video/%d/toggle", vid), bob.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isLiked":true,"likesCount":1}`, string(env.Data))

	rec, env = s.call(t, http.MethodGet, videoPath, bob.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Views      int64 `json:"views"`
		LikesCount int64 `json:"likesCount"`
		IsLiked    bool  `json:"isLiked"`
		Owner      struct {
			Username         string `json:"username"`
			SubscribersCount int64  `json:"subscribersCount"`
			IsSubscribed     bool   `json:"isSubscribed"`
		} `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, int64(1), detail.Views)
	assert.Equal(t, int64(1), detail.LikesCount)
	assert.True(t, detail.IsLiked)
	assert.Equal(t, "alice", detail.Owner.Username)
	assert.Equal(t, int64(1), detail.Owner.SubscribersCount)
	assert.True(t, detail.Owner.IsSubscribed)

	// bob comments, alice cannot edit it
	rec, env = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/comment/addComment/%d", vid), bob.Access,
		map[string]string{"content": "  nice one  "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cm struct {
		ID      uint64 `json:"id"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cm))
	assert.Equal(t, "nice one", cm.Content)

	rec, _ = s.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/comment/update/%d", cm.ID), alice.Access,
		map[string]string{"content": "edited"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// history lists the video for bob
	rec, env = s.call(t, http.MethodGet, "/api/v1/users/history", bob.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, vid, hist[0].ID)

	// anonymous channel view sees counts but no subscription flag
	rec, env = s.call(t, http.MethodGet, "/api/v1/users/c/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ch struct {
		SubscribersCount int64 `json:"subscribersCount"`
		IsSubscribed     bool  `json:"isSubscribed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ch))
	assert.Equal(t, int64(1), ch.SubscribersCount)
	assert.False(t, ch.IsSubscribed)

	// bob unlikes; owner deletes the video and it is gone
	rec, env = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/like/video/%d/toggle", vid), bob.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isLiked":false,"likesCount":0}`, string(env.Data))

	rec, _ = s.call(t, http.MethodDelete, videoPath, bob.Access, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.call(t, http.MethodDelete, videoPath, alice.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.call(t, http.MethodGet, videoPath, bob.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries, err := os.ReadDir(filepath.Join(s.mediaDir, "videos"))
	require.NoError(t, err)
	assert.Empty(t, entries, "media is removed with the video")
}

func TestSelfSubscribeRejected(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")

	rec, env := s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/subscription/%d/toggle", alice.UserID), alice.Access, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestUploadedMediaIsServed(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	vid := s.publish(t, alice.Access, "served")

	_, env := s.call(t, http.MethodGet, fmt.Sprintf("/api/v1/videos/%d", vid), alice.Access, nil)
	var v struct {
		VideoFile string `json:"videoFile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, v.VideoFile, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "movie bytes", rec.Body.String())
}

func TestRateLimitFallsBackToLocalBucket(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.RateLimit = config.RateLimitConfig{
			Enabled:        true,
			Capacity:       2,
			RefillTokens:   1,
			RefillInterval: time.Hour,
			TTL:            5 * time.Hour,
			KeyStrategy:    "ip",
			Prefix:         "rl",
		}
	})
	for i := 0; i < 2; i++ {
		rec, _ := s.call(t, http.MethodGet, "/api/v1/videos", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := s.call(t, http.MethodGet, "/api/v1/videos", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.call(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "streamhub_http_requests_total")
}
