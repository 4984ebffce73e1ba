// Package auth validates the fixed admin credential pair and mints the
// signed, expiring token handed back on login.
package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Credentials is the single admin account, sourced from process
// configuration. An unset pair never matches anything.
type Credentials struct {
	Username string
	Password string
}

// Check reports whether the supplied pair matches. It yields a single
// yes/no outcome and never reveals which field was wrong.
func (c Credentials) Check(username, password string) bool {
	if c.Username == "" || c.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
	return userOK && passOK
}

// Claims are the session token claims.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// TokenService issues and validates admin session tokens.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
}

func NewTokenService(secret string, lifetime time.Duration) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		lifetime: lifetime,
		issuer:   "daily-spin",
	}
}

// Lifetime is the session duration T the caller persists alongside the
// token as an absolute expiry deadline.
func (t *TokenService) Lifetime() time.Duration {
	return t.lifetime
}

// Generate mints a signed token for username expiring after the
// configured lifetime, returning the token and its expiry time.
func (t *TokenService) Generate(username string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(t.lifetime)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a session token.
func (t *TokenService) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
