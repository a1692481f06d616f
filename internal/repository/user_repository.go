package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/streamhub/internal/model"
)

const userColumns = "id,username,email,full_name,avatar_url,cover_image_url,password_hash,refresh_token_hash,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Normalize lower-cases and trims a username or email the way it is stored.
func Normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Create inserts the user and returns its ID.  PasswordHash must already be
// set.  A taken username or email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username,email,full_name,avatar_url,cover_image_url,password_hash,created_at,updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		Normalize(u.Username), Normalize(u.Email), strings.TrimSpace(u.FullName),
		u.AvatarURL, u.CoverImageURL, u.PasswordHash, now, now)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UsernameOrEmailTaken reports whether either value is already registered.
func (r *UserRepo) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=? OR email=?",
		Normalize(username), Normalize(email)).Scan(&n)
	return n > 0, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", Normalize(username))
}

// GetByLogin matches the identifier against both username and email.
func (r *UserRepo) GetByLogin(ctx context.Context, usernameOrEmail string) (model.User, error) {
	v := Normalize(usernameOrEmail)
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1", v, v)
}

// Exists reports whether a user with the id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.CoverImageURL,
		&u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	u.RefreshTokenHash = refresh.String
	return u, nil
}

// SetRefreshHash overwrites the stored refresh reference.  An empty hash
// clears it.
func (r *UserRepo) SetRefreshHash(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, updated_at=? WHERE id=?",
		nullable(hash), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set refresh hash: %w", err)
	}
	return requireRow(res)
}

// RotateRefreshHash swaps the stored reference from oldHash to newHash only
// if oldHash is still current.  It returns false when another rotation or a
// logout got there first.
func (r *UserRepo) RotateRefreshHash(ctx context.Context, id uint64, oldHash, newHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, updated_at=? WHERE id=? AND refresh_token_hash=?",
		newHash, time.Now().UTC(), id, oldHash)
	if err != nil {
		return false, fmt.Errorf("rotate refresh hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdatePassword stores a new hash and drops the refresh reference so every
// outstanding session has to log in again.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, refresh_token_hash=NULL, updated_at=? WHERE id=?",
		hash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

// UpdateAccount changes the display name and email.
func (r *UserRepo) UpdateAccount(ctx context.Context, id uint64, fullName, email string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, email=?, updated_at=? WHERE id=?",
		strings.TrimSpace(fullName), Normalize(email), time.Now().UTC(), id)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

// UpdateAvatar replaces the avatar URL.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, url string) error {
	return r.updateImage(ctx, "avatar_url", id, url)
}

// UpdateCoverImage replaces the cover image URL.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id uint64, url string) error {
	return r.updateImage(ctx, "cover_image_url", id, url)
}

// column is one of two constants supplied by this file, never user input.
func (r *UserRepo) updateImage(ctx context.Context, column string, id uint64, url string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+column+"=?, updated_at=? WHERE id=?",
		url, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return requireRow(res)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// requireRow turns a zero-row update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
