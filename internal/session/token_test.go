package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenCodec(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, "mala-backoffice")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		id := uuid.New()
		userID := uuid.New()
		token, expires, err := codec.Issue(id, userID, time.Hour)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

		got, claims, err := codec.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
		assert.Equal(t, userID.String(), claims.Subject)
	})

	t.Run("expired token", func(t *testing.T) {
		token, _, err := codec.Issue(uuid.New(), uuid.New(), -time.Minute)
		require.NoError(t, err)

		_, _, err = codec.Parse(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenCodec("another-secret-another-secret-xx", "mala-backoffice")
		require.NoError(t, err)
		token, _, err := other.Issue(uuid.New(), uuid.New(), time.Hour)
		require.NoError(t, err)

		_, _, err = codec.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenCodec(testSecret, "someone-else")
		require.NoError(t, err)
		token, _, err := other.Issue(uuid.New(), uuid.New(), time.Hour)
		require.NoError(t, err)

		_, _, err = codec.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token is rejected", func(t *testing.T) {
		claims := &Claims{
			SessionID: uuid.New().String(),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "mala-backoffice",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, _, err = codec.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := codec.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	_, err := NewTokenCodec("", "x")
	assert.Error(t, err)
}
