package model

import "time"

// User represents an identity record as stored in the `users` table.
// Each field corresponds to a column in the database.  The struct never
// leaves the service layer: handlers respond with PublicUser, which drops
// the credential fields.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Username         – unique, lower-cased handle; also the channel name.
//	Email            – unique, lower-cased email address.
//	FullName         – display name.
//	AvatarURL        – public URL of the avatar image (may be empty).
//	CoverImageURL    – public URL of the channel cover image (may be empty).
//	PasswordHash     – bcrypt hashed password.
//	RefreshTokenHash – SHA-256 hex digest of the current refresh token; empty when logged out.
//	CreatedAt        – timestamp of creation.
//	UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64    // users.id
	Username         string    // users.username
	Email            string    // users.email
	FullName         string    // users.full_name
	AvatarURL        string    // users.avatar_url
	CoverImageURL    string    // users.cover_image_url
	PasswordHash     string    // users.password_hash
	RefreshTokenHash string    // users.refresh_token_hash (nullable)
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// PublicUser is the sanitized projection of a User returned to clients.
type PublicUser struct {
	ID            uint64    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Public strips credential fields.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// OwnerSummary is the minimal identity projection joined into feeds.
type OwnerSummary struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName,omitempty"`
	AvatarURL string `json:"avatar"`
}
