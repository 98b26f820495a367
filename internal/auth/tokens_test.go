package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstream/backend/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       "11111111-2222-3333-4444-555555555555",
		Username: "ada",
		Email:    "ada@x.com",
		FullName: "Ada Lovelace",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 10*time.Hour)
	u := testUser()

	token, err := issuer.IssueAccessToken(u)
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, u.Username, claims.Username)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.FullName, claims.FullName)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 10*time.Hour)
	u := testUser()

	token, err := issuer.IssueRefreshToken(u)
	require.NoError(t, err)

	id, err := issuer.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 10*time.Hour)
	u := testUser()

	access, err := issuer.IssueAccessToken(u)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefreshToken(u)
	require.NoError(t, err)

	_, err = issuer.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "access token is not a valid refresh token")

	_, err = issuer.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "refresh token is not a valid access token")
}

func TestExpiredRefreshTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, -time.Minute)

	token, err := issuer.IssueRefreshToken(testUser())
	require.NoError(t, err)

	_, err = issuer.VerifyRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestForeignSecretRejected(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 10*time.Hour)
	other := NewTokenIssuer("other-access", "other-refresh", time.Hour, 10*time.Hour)

	token, err := other.IssueRefreshToken(testUser())
	require.NoError(t, err)

	_, err = issuer.VerifyRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGarbageTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 10*time.Hour)

	_, err := issuer.VerifyRefreshToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = issuer.VerifyAccessToken("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestConsecutiveRefreshTokensDiffer(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 10*time.Hour)
	u := testUser()

	a, err := issuer.IssueRefreshToken(u)
	require.NoError(t, err)
	b, err := issuer.IssueRefreshToken(u)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "rotation depends on each minted token being unique")
}
