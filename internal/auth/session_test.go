package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	v := NewSessionVerifier("test-secret", "")
	token, err := v.Issue(Identity{
		UserID:    "user_123",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user_123", id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, "Ada", id.FirstName)
	assert.Equal(t, "Lovelace", id.LastName)
}

func TestSessionVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := NewSessionVerifier("right-secret", "spendwise-idp")

	expired, err := v.Issue(Identity{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := NewSessionVerifier("wrong-secret", "spendwise-idp").Issue(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewSessionVerifier("right-secret", "someone-else").Issue(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := v.Issue(Identity{}, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "u1",
		Issuer:  "spendwise-idp",
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "spendwise-idp",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"alg none":     noneAlg,
		"malformed":    "not.a.jwt",
		"empty":        "",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}
