package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/streamhub/internal/config"
	"github.com/iliyamo/streamhub/internal/metrics"
	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/repository"
	"github.com/iliyamo/streamhub/internal/utils"
)

// SessionConfig holds the token and hashing parameters.
type SessionConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

// SessionConfigFrom extracts the session settings from the app config.
func SessionConfigFrom(cfg config.Config) SessionConfig {
	return SessionConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL:    time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost:    cfg.BcryptCost,
	}
}

// Tokens is an issued access/refresh pair.
type Tokens struct {
	AccessToken    string    `json:"accessToken"`
	AccessExpires  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken   string    `json:"refreshToken"`
	RefreshExpires time.Time `json:"refreshTokenExpiresAt"`
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	User model.PublicUser `json:"user"`
	Tokens
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// SessionManager issues, validates and rotates credentials.  Access tokens
// are stateless; the SHA-256 of the current refresh token is kept on the
// user row, so each identity has at most one live refresh token.
type SessionManager struct {
	cfg    SessionConfig
	users  UserStore
	events EventPublisher
}

func NewSessionManager(cfg SessionConfig, users UserStore, events EventPublisher) *SessionManager {
	if events == nil {
		events = queue.Discard{}
	}
	return &SessionManager{cfg: cfg, users: users, events: events}
}

// Register creates an identity.  Uniqueness is checked up front for a clean
// error and enforced again by the unique keys for concurrent sign-ups.
func (s *SessionManager) Register(ctx context.Context, in RegisterInput) (model.PublicUser, error) {
	var blank []string
	for _, f := range []struct{ name, value string }{
		{"fullName", in.FullName}, {"email", in.Email}, {"username", in.Username}, {"password", in.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			blank = append(blank, f.name+" is required")
		}
	}
	if len(blank) > 0 {
		return model.PublicUser{}, validation("all fields are required", blank...)
	}
	if len(in.Password) > utils.MaxPasswordBytes {
		return model.PublicUser{}, validation("password is too long")
	}

	taken, err := s.users.UsernameOrEmailTaken(ctx, in.Username, in.Email)
	if err != nil {
		return model.PublicUser{}, internal("check user", err)
	}
	if taken {
		return model.PublicUser{}, conflict("user with email or username already exists")
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.PublicUser{}, internal("hash password", err)
	}
	id, err := s.users.Create(ctx, model.User{
		Username: in.Username, Email: in.Email, FullName: in.FullName, PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return model.PublicUser{}, conflict("user with email or username already exists")
	}
	if err != nil {
		return model.PublicUser{}, internal("create user", err)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, internal("load user", err)
	}
	s.events.Publish(queue.EngagementEvent{Type: queue.UserRegistered, ActorID: id})
	return u.Public(), nil
}

// Login verifies the password and issues a fresh pair.  The new refresh
// reference overwrites any previous one, ending older sessions.
func (s *SessionManager) Login(ctx context.Context, usernameOrEmail, password string) (LoginResult, error) {
	if strings.TrimSpace(usernameOrEmail) == "" {
		return LoginResult{}, validation("username or email is required")
	}
	if password == "" {
		return LoginResult{}, validation("password is required")
	}

	u, err := s.users.GetByLogin(ctx, usernameOrEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, notFound("user does not exist")
	}
	if err != nil {
		return LoginResult{}, internal("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, unauthorized("invalid user credentials")
	}

	tokens, err := s.issue(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.users.SetRefreshHash(ctx, u.ID, utils.HashToken(tokens.RefreshToken)); err != nil {
		return LoginResult{}, internal("save refresh token", err)
	}
	return LoginResult{User: u.Public(), Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair.  The presented token
// must be the one currently referenced by the user row; the swap to the new
// reference is a compare-and-swap, so of two concurrent refreshes with the
// same token exactly one wins and the other gets ErrAuth.
func (s *SessionManager) Refresh(ctx context.Context, presented string) (LoginResult, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return LoginResult{}, unauthorized("unauthorized request")
	}
	id, err := utils.ParseToken(s.cfg.RefreshSecret, presented, utils.TypeRefresh)
	if err != nil {
		return LoginResult{}, unauthorized("invalid refresh token")
	}

	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, unauthorized("invalid refresh token")
	}
	if err != nil {
		return LoginResult{}, internal("load user", err)
	}

	presentedHash := utils.HashToken(presented)
	if u.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(u.RefreshTokenHash), []byte(presentedHash)) != 1 {
		metrics.RefreshRejected.Inc()
		return LoginResult{}, unauthorized("refresh token is expired or used")
	}

	tokens, err := s.issue(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	swapped, err := s.users.RotateRefreshHash(ctx, u.ID, presentedHash, utils.HashToken(tokens.RefreshToken))
	if err != nil {
		return LoginResult{}, internal("rotate refresh token", err)
	}
	if !swapped {
		metrics.RefreshRejected.Inc()
		return LoginResult{}, unauthorized("refresh token is expired or used")
	}
	return LoginResult{User: u.Public(), Tokens: tokens}, nil
}

// Logout clears the refresh reference so no outstanding refresh token can
// be used again.  Access tokens stay valid until they expire.
func (s *SessionManager) Logout(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return unauthorized("unauthorized request")
	}
	err := s.users.SetRefreshHash(ctx, userID, "")
	if errors.Is(err, repository.ErrNotFound) {
		return unauthorized("unauthorized request")
	}
	if err != nil {
		return internal("logout", err)
	}
	return nil
}

// Authenticate verifies an access token and returns the user id it carries.
func (s *SessionManager) Authenticate(token string) (uint64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, unauthorized("unauthorized request")
	}
	id, err := utils.ParseToken(s.cfg.AccessSecret, token, utils.TypeAccess)
	if err != nil {
		return 0, unauthorized("invalid access token")
	}
	return id, nil
}

func (s *SessionManager) issue(userID uint64) (Tokens, error) {
	access, err := utils.NewAccessToken(s.cfg.AccessSecret, userID, s.cfg.AccessTTL)
	if err != nil {
		return Tokens{}, internal("issue access token", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshSecret, userID, s.cfg.RefreshTTL)
	if err != nil {
		return Tokens{}, internal("issue refresh token", err)
	}
	return Tokens{
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshToken:   refresh.Token,
		RefreshExpires: refresh.Exp,
	}, nil
}
