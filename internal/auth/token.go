/* staff session token issue and validation */

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const issuer = "formsadmin"

// SessionCookie carries the session token of a logged in staff user.
const SessionCookie = "formsadmin_session"

var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the JWT payload of an admin session.
type Claims struct {
	Username string `json:"username"`
	Staff    bool   `json:"staff"`
	jwt.RegisteredClaims
}

// Issuer signs and validates session tokens with one HMAC key.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing key")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// GenerateToken issues a session token for username.
func (i *Issuer) GenerateToken(username string, staff bool) (string, error) {
	id, err := gonanoid.New(21)
	if err != nil {
		return "", fmt.Errorf("auth: token id: %w", err)
	}
	now := i.now()
	claims := &Claims{
		Username: username,
		Staff:    staff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   "admin_session",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and returns its claims. Expired tokens
// yield an error wrapping jwt.ErrTokenExpired.
func (i *Issuer) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
