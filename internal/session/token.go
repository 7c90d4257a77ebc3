package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature, issuer
	// or shape checks.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpiredToken is returned for tokens past their expiry.
	ErrExpiredToken = errors.New("session token expired")
)

// Claims is the payload of a session cookie. It only points at the
// registry entry and the account behind it; role and permissions never
// travel in the token.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session tokens with HMAC-SHA256.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenCodec creates a codec. The secret must not be empty.
func NewTokenCodec(secret, issuer string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	return &TokenCodec{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for session id, owned by account userID, that
// expires after ttl.
func (c *TokenCodec) Issue(id, userID uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	expires := now.Add(ttl)
	claims := &Claims{
		SessionID: id.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns the session ID it names. The
// account ID is in the returned claims' Subject.
func (c *TokenCodec) Parse(token string) (uuid.UUID, *Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, nil, ErrExpiredToken
		}
		return uuid.Nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: bad sid: %v", ErrInvalidToken, err)
	}
	return id, claims, nil
}
