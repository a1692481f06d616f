package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of the digest
	"errors"        // sentinel errors for token checks
	"fmt"           // fmt wraps parser errors
	"strconv"       // strconv parses the subject claim
	"time"          // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // uuid gives every refresh token a unique jti
)

// Token types carried in the "typ" claim.  An access token is never
// accepted where a refresh token is expected and vice versa.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken is returned for any token that fails signature, expiry,
// algorithm or type checks.
var ErrInvalidToken = errors.New("invalid token")

// SignedToken is a serialized JWT along with its expiry.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT
// includes the subject (sub), type (typ), expiration (exp) and issued at
// (iat) claims.  Access tokens are never persisted.
func NewAccessToken(secret string, userID uint64, ttl time.Duration) (SignedToken, error) {
	return sign(secret, jwt.MapClaims{"sub": strconv.FormatUint(userID, 10), "typ": TypeAccess}, ttl)
}

// NewRefreshToken builds and signs a refresh JWT.  The random jti makes two
// refresh tokens issued in the same second for the same user distinct, so
// their hashes never collide.
func NewRefreshToken(secret string, userID uint64, ttl time.Duration) (SignedToken, error) {
	return sign(secret, jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"typ": TypeRefresh,
		"jti": uuid.NewString(),
	}, ttl)
}

func sign(secret string, claims jwt.MapClaims, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims["exp"] = exp.Unix()
	claims["iat"] = now.Unix()
	// Create a new token object specifying the signing method (HS256).
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies signature, expiry and type and returns the user id
// from the subject claim.
func ParseToken(secret, raw, wantType string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return 0, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.  Only
// this digest is stored, so a leaked users table cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
