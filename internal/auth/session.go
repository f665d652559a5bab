package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession covers every way a session token can fail verification.
var ErrInvalidSession = errors.New("invalid session token")

// Identity is what a verified session says about the caller.
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	ExpiresAt time.Time
}

// SessionClaims is the token payload issued by the identity provider.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

// SessionVerifier checks HS256 session tokens.
type SessionVerifier struct {
	secret []byte
	issuer string
}

// NewSessionVerifier creates a verifier. An empty issuer disables the iss check.
func NewSessionVerifier(secret, issuer string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses token and returns the caller identity.
// Tokens must carry sub and exp.
func (v *SessionVerifier) Verify(token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return &Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Issue signs a session token for identity. The identity provider normally
// does this; the bootstrap tool and tests use it to mint tokens locally.
func (v *SessionVerifier) Issue(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:      identity.Email,
		GivenName:  identity.FirstName,
		FamilyName: identity.LastName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}
