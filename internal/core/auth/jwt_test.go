package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTer() *JWTer {
	return &JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "user-account-service",
		TTL:        15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func TestIssuePair_SubjectRoundTrip(t *testing.T) {
	j := newTestJWTer()

	pair, err := j.IssuePair("u-1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	ac, err := j.Parse(pair.AccessToken, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u-1", ac.Subject)

	rc, err := j.Parse(pair.RefreshToken, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", rc.Subject)
	assert.True(t, rc.ExpiresAt.After(ac.ExpiresAt.Time))
}

func TestParse_WrongType(t *testing.T) {
	j := newTestJWTer()
	pair, err := j.IssuePair("u-1")
	require.NoError(t, err)

	_, err = j.Parse(pair.RefreshToken, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = j.Parse(pair.AccessToken, TypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_FailsClosed(t *testing.T) {
	j := newTestJWTer()
	good, err := j.Issue("u-1", TypeAccess)
	require.NoError(t, err)

	expired := &JWTer{Secret: j.Secret, Issuer: j.Issuer, TTL: -time.Minute}
	expiredTok, err := expired.Issue("u-1", TypeAccess)
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: j.Issuer, TTL: time.Minute}
	forged, err := other.Issue("u-1", TypeAccess)
	require.NoError(t, err)

	wrongIss := &JWTer{Secret: j.Secret, Issuer: "someone-else", TTL: time.Minute}
	wrongIssTok, err := wrongIss.Issue("u-1", TypeAccess)
	require.NoError(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			Issuer:    j.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	wrongAlg, err := hs512.SignedString(j.Secret)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":       expiredTok,
		"bad signature": forged,
		"wrong issuer":  wrongIssTok,
		"wrong alg":     wrongAlg,
		"garbage":       "not.a.token",
		"truncated":     good[:len(good)-4],
		"empty":         "",
	} {
		t.Run(name, func(t *testing.T) {
			c, err := j.Parse(tok, TypeAccess)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
