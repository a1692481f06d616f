package service_test

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/streamhub/internal/database/dbtest"
	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/repository"
	"github.com/iliyamo/streamhub/internal/service"
)

// memMedia is an in-memory MediaStore.
type memMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemMedia() *memMedia { return &memMedia{objects: map[string][]byte{}} }

func (m *memMedia) Save(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if m.failOn != "" && strings.HasPrefix(key, m.failOn) {
		return "", io.ErrUnexpectedEOF
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return "/media/" + key, nil
}

func (m *memMedia) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memMedia) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memMedia) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.EngagementEvent
}

func (r *recorder) Publish(ev queue.EngagementEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(typ string) []queue.EngagementEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []queue.EngagementEvent
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type env struct {
	db       *sql.DB
	users    *repository.UserRepo
	videos   *repository.VideoRepo
	comments *repository.CommentRepo
	history  *repository.HistoryRepo

	sessions *service.SessionManager
	account  *service.Account
	ledger   *service.Ledger
	composer *service.Composer
	content  *service.Content

	media  *memMedia
	events *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	e := &env{
		db:       db,
		users:    repository.NewUserRepo(db),
		videos:   repository.NewVideoRepo(db),
		comments: repository.NewCommentRepo(db),
		history:  repository.NewHistoryRepo(db),
		media:    newMemMedia(),
		events:   &recorder{},
	}
	subs := repository.NewSubscriptionRepo(db)
	likes := repository.NewLikeRepo(db)

	e.sessions = service.NewSessionManager(service.SessionConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		BcryptCost:    bcrypt.MinCost,
	}, e.users, e.events)
	e.account = service.NewAccount(e.users, e.media, bcrypt.MinCost)
	e.ledger = service.NewLedger(e.users, e.videos, e.comments, subs, likes, e.events)
	e.content = service.NewContent(e.videos, e.comments, likes, e.media, e.events)
	e.composer = service.NewComposer(service.ComposerConfig{MaxPageSize: 100, HistoryLimit: 50}, service.ComposerDeps{
		Users: e.users, Videos: e.videos, Comments: e.comments, Subs: subs, Likes: likes, History: e.history,
		Recorder: service.NewEngagementRecorder(e.videos, e.history, e.events),
	})
	return e
}

func (e *env) register(t *testing.T, name string) model.PublicUser {
	t.Helper()
	u, err := e.sessions.Register(context.Background(), service.RegisterInput{
		Username: name, Email: name + "@x.com", Password: "pw-" + name, FullName: strings.ToUpper(name),
	})
	require.NoError(t, err)
	return u
}

func (e *env) publish(t *testing.T, ownerID uint64, title string) model.Video {
	t.Helper()
	v, err := e.content.PublishVideo(context.Background(), ownerID, service.PublishInput{
		Title:       title,
		Description: "about " + title,
		Duration:    42,
		Video:       service.Upload{Filename: title + ".mp4", ContentType: "video/mp4", Body: strings.NewReader("video")},
		Thumbnail:   service.Upload{Filename: title + ".png", ContentType: "image/png", Body: strings.NewReader("thumb")},
	})
	require.NoError(t, err)
	return v
}
