package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access_test_secret")
	refreshSecret = []byte("refresh_test_secret")
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := SignAccessToken(42, "test@example.com", "user", accessSecret, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.NoError(t, err)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "test@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.True(t, claims.ExpiresAt.After(time.Now()))

	id, err := SubjectID(claims.Subject)
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := SignAccessToken(42, "test@example.com", "user", accessSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Nil(t, claims)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := SignAccessToken(42, "test@example.com", "admin", accessSecret, 15*time.Minute)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, []byte("a completely different secret"))
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Nil(t, claims)
}

func TestAccessTokenTampered(t *testing.T) {
	token, err := SignAccessToken(42, "test@example.com", "user", accessSecret, 15*time.Minute)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token+"x", accessSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Nil(t, claims)

	claims, err = AccessClaimsFromToken("not.a.jwt", accessSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Nil(t, claims)
}

func TestSignMissingSecret(t *testing.T) {
	_, err := SignAccessToken(42, "test@example.com", "user", nil, 15*time.Minute)
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = SignRefreshToken(42, "jti-1", []byte{}, time.Hour)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := SignRefreshToken(7, "jti-abc", refreshSecret, 7*24*time.Hour)
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(token, refreshSecret)
	require.NoError(t, err)
	require.Equal(t, "7", claims.Subject)
	require.Equal(t, "jti-abc", claims.ID)
}

func TestRefreshTokenCrossSecret(t *testing.T) {
	// An access token must not verify against the refresh secret and
	// vice versa.
	access, err := SignAccessToken(7, "test@example.com", "user", accessSecret, time.Hour)
	require.NoError(t, err)

	_, err = RefreshClaimsFromToken(access, refreshSecret)
	require.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := SignRefreshToken(7, "jti-abc", refreshSecret, time.Hour)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(refresh, accessSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}
