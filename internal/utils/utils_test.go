package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), tok.Exp, 5*time.Second)

	id, err := ParseToken("s3cret", tok.Token, TypeAccess)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestParseTokenRejects(t *testing.T) {
	access, err := NewAccessToken("s3cret", 7, time.Minute)
	require.NoError(t, err)
	refresh, err := NewRefreshToken("r3fresh", 7, time.Minute)
	require.NoError(t, err)
	expired, err := NewAccessToken("s3cret", 7, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name, secret, token, typ string
	}{
		{"wrong secret", "other", access.Token, TypeAccess},
		{"expired", "s3cret", expired.Token, TypeAccess},
		{"refresh used as access", "r3fresh", refresh.Token, TypeAccess},
		{"access used as refresh", "s3cret", access.Token, TypeRefresh},
		{"garbage", "s3cret", "not-a-jwt", TypeAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token, tt.typ)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	a, err := NewRefreshToken("r", 1, time.Hour)
	require.NoError(t, err)
	b, err := NewRefreshToken("r", 1, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, HashToken(a.Token), HashToken(b.Token))
	assert.Len(t, HashToken(a.Token), 64)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("pw", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "pw"))
	assert.False(t, VerifyPassword(hash, "nope"))
}
