package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testCfg = Config{Secret: "test-secret", Issuer: "footprint-logger", TTL: time.Hour}

func TestIssueParseRoundTrip(t *testing.T) {
	token, err := Issue("user-1", "thandi", testCfg)
	require.NoError(t, err)

	claims, err := Parse(token, testCfg)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "thandi", claims.Username)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := Issue("user-1", "thandi", testCfg)
	require.NoError(t, err)

	_, err = Parse(token, Config{Secret: "other-secret", Issuer: testCfg.Issuer})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := Issue("user-1", "thandi", testCfg)
	require.NoError(t, err)

	_, err = Parse(token, Config{Secret: testCfg.Secret, Issuer: "someone-else"})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testCfg
	cfg.TTL = time.Nanosecond
	token, err := Issue("user-1", "thandi", cfg)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, err = Parse(token, cfg)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsEmptyAndGarbage(t *testing.T) {
	_, err := Parse("", testCfg)
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = Parse("   ", testCfg)
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = Parse("not.a.token", testCfg)
	require.ErrorIs(t, err, ErrInvalidToken)
}
