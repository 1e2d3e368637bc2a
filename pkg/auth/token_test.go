package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/enums"
)

var testCfg = config.JWTConfig{Secret: "secret", Issuer: "luxemarket", ExpirationMinutes: 30}

func TestMintAndParseRoundTrip(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	token, err := MintAccessToken(testCfg, now, AccessTokenPayload{UserID: userID, Role: enums.RoleAdmin, JTI: " session-1 "})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.RoleAdmin, claims.Role)
	assert.Equal(t, "session-1", claims.ID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, now.Add(30*time.Minute), claims.ExpiresAt.Time.UTC())
}

func TestMintValidatesInput(t *testing.T) {
	now := time.Now()
	user := AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleUser}

	_, err := MintAccessToken(testCfg, now, AccessTokenPayload{Role: enums.RoleUser})
	assert.ErrorIs(t, err, ErrNoSubject)

	_, err = MintAccessToken(testCfg, now, AccessTokenPayload{UserID: uuid.New(), Role: "owner"})
	assert.ErrorContains(t, err, "invalid role")

	cfg := testCfg
	cfg.Secret = ""
	_, err = MintAccessToken(cfg, now, user)
	assert.ErrorIs(t, err, ErrNoSecret)

	cfg = testCfg
	cfg.Issuer = ""
	_, err = MintAccessToken(cfg, now, user)
	assert.ErrorIs(t, err, ErrNoIssuer)

	cfg = testCfg
	cfg.ExpirationMinutes = 0
	_, err = MintAccessToken(cfg, now, user)
	assert.ErrorIs(t, err, ErrBadTTL)
}

func TestExpiredTokenOnlyParsesWhenAllowed(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleUser})
	require.NoError(t, err)

	_, err = ParseAccessToken(testCfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := ParseAccessTokenAllowExpired(testCfg, token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID, "jti should be generated")
}

func TestParseRejectsForeignTokens(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleUser})
	require.NoError(t, err)

	other := testCfg
	other.Secret = "other"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	other = testCfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Issuer: testCfg.Issuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken(testCfg, unsigned)
	assert.Error(t, err)

	_, err = ParseAccessToken(config.JWTConfig{}, token)
	assert.ErrorIs(t, err, ErrNoSecret)
}
