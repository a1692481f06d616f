// Package app wires stores, services, handlers and middleware into an
// echo server.  cmd/server calls it with production dependencies and the
// end-to-end tests call it with SQLite and local storage.
package app

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/streamhub/internal/config"
	"github.com/iliyamo/streamhub/internal/handler"
	"github.com/iliyamo/streamhub/internal/middleware"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/repository"
	"github.com/iliyamo/streamhub/internal/router"
	"github.com/iliyamo/streamhub/internal/service"
	"github.com/iliyamo/streamhub/internal/storage"
)

// Deps are the external resources the server runs on.  Redis, Events and
// Search may be nil.
type Deps struct {
	Config config.Config
	DB     *sql.DB
	Media  storage.MediaStore
	Events service.EventPublisher
	Redis  *redis.Client
	Search service.SearchProvider
	Logger *slog.Logger
}

// NewServer builds the echo instance with every route registered.
func NewServer(d Deps) *echo.Echo {
	cfg := d.Config
	if d.Events == nil {
		d.Events = queue.Discard{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	users := repository.NewUserRepo(d.DB)
	videos := repository.NewVideoRepo(d.DB)
	comments := repository.NewCommentRepo(d.DB)
	subs := repository.NewSubscriptionRepo(d.DB)
	likes := repository.NewLikeRepo(d.DB)
	history := repository.NewHistoryRepo(d.DB)

	sessions := service.NewSessionManager(service.SessionConfigFrom(cfg), users, d.Events)
	account := service.NewAccount(users, d.Media, cfg.BcryptCost)
	ledger := service.NewLedger(users, videos, comments, subs, likes, d.Events)
	content := service.NewContent(videos, comments, likes, d.Media, d.Events)
	composer := service.NewComposer(
		service.ComposerConfig{MaxPageSize: cfg.MaxPageSize, HistoryLimit: cfg.HistoryLimit},
		service.ComposerDeps{
			Users: users, Videos: videos, Comments: comments, Subs: subs, Likes: likes, History: history,
			Recorder: service.NewEngagementRecorder(videos, history, d.Events),
			Search:   d.Search,
		},
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(cfg.Production())
	e.Use(
		middleware.Metrics(),
		middleware.RequestLogger(d.Logger),
		middleware.NewTokenBucket(cfg.RateLimit, d.Redis),
	)

	h := router.Handlers{
		Users: &handler.UserHandler{
			Sessions: sessions, Account: account, Composer: composer,
			Timeout: cfg.RequestTimeout, SecureCookies: cfg.CookieSecure(),
		},
		Videos:     &handler.VideoHandler{Content: content, Composer: composer, Timeout: cfg.RequestTimeout},
		Comments:   &handler.CommentHandler{Content: content, Composer: composer, Timeout: cfg.RequestTimeout},
		Engagement: &handler.EngagementHandler{Ledger: ledger, Composer: composer, Timeout: cfg.RequestTimeout},
		Auth:       sessions,
		DB:         d.DB,
	}
	if !cfg.Storage.UseS3() {
		h.MediaDir, h.MediaURL = cfg.Storage.LocalDir, cfg.Storage.LocalBaseURL
	}
	router.RegisterRoutes(e, h)
	return e
}
