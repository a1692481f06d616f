package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/streamhub/internal/logging"
	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/repository"
	"github.com/iliyamo/streamhub/internal/storage"
	"github.com/iliyamo/streamhub/internal/utils"
)

// Account manages the signed-in user's own profile.
type Account struct {
	users UserStore
	media storage.MediaStore
	cost  int
}

func NewAccount(users UserStore, media storage.MediaStore, bcryptCost int) *Account {
	return &Account{users: users, media: media, cost: bcryptCost}
}

// CurrentUser returns the sanitized identity of userID.
func (a *Account) CurrentUser(ctx context.Context, userID uint64) (model.PublicUser, error) {
	u, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PublicUser{}, unauthorized("invalid access token")
	}
	if err != nil {
		return model.PublicUser{}, internal("load user", err)
	}
	return u.Public(), nil
}

// ChangePassword verifies the old password and stores the new one.  All
// refresh tokens stop working; the caller keeps its access token until it
// expires.
func (a *Account) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return validation("old and new password are required")
	}
	if len(newPassword) > utils.MaxPasswordBytes {
		return validation("password is too long")
	}
	u, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return unauthorized("invalid access token")
	}
	if err != nil {
		return internal("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return validation("invalid old password")
	}
	hash, err := utils.HashPassword(newPassword, a.cost)
	if err != nil {
		return internal("hash password", err)
	}
	if err := a.users.UpdatePassword(ctx, userID, hash); err != nil {
		return internal("update password", err)
	}
	return nil
}

// UpdateAccount changes the display name and email.
func (a *Account) UpdateAccount(ctx context.Context, userID uint64, fullName, email string) (model.PublicUser, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return model.PublicUser{}, validation("all fields are required")
	}
	err := a.users.UpdateAccount(ctx, userID, fullName, email)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return model.PublicUser{}, conflict("email is already in use")
	case errors.Is(err, repository.ErrNotFound):
		return model.PublicUser{}, unauthorized("invalid access token")
	case err != nil:
		return model.PublicUser{}, internal("update account", err)
	}
	return a.CurrentUser(ctx, userID)
}

// UpdateAvatar stores a new avatar image and points the profile at it.
func (a *Account) UpdateAvatar(ctx context.Context, userID uint64, img Upload) (model.PublicUser, error) {
	return a.replaceImage(ctx, userID, "avatars", img, a.users.UpdateAvatar)
}

// UpdateCoverImage stores a new cover image and points the profile at it.
func (a *Account) UpdateCoverImage(ctx context.Context, userID uint64, img Upload) (model.PublicUser, error) {
	return a.replaceImage(ctx, userID, "covers", img, a.users.UpdateCoverImage)
}

func (a *Account) replaceImage(ctx context.Context, userID uint64, folder string, img Upload,
	set func(context.Context, uint64, string) error,
) (model.PublicUser, error) {
	if img.Body == nil {
		return model.PublicUser{}, validation("image file is missing")
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return model.PublicUser{}, validation("file must be an image")
	}
	key := storage.Key(folder, img.Filename)
	url, err := a.media.Save(ctx, key, img.Body, img.ContentType)
	if err != nil {
		return model.PublicUser{}, internal("upload image", err)
	}
	if err := set(ctx, userID, url); err != nil {
		a.discard(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return model.PublicUser{}, unauthorized("invalid access token")
		}
		return model.PublicUser{}, internal("update image", err)
	}
	return a.CurrentUser(ctx, userID)
}

func (a *Account) discard(ctx context.Context, key string) {
	if err := a.media.Delete(context.WithoutCancel(ctx), key); err != nil {
		logging.FromContext(ctx).Warn("delete orphaned upload", "key", key, "err", err)
	}
}
