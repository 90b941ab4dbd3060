// Package auth provides JWT issuance and validation, the GitHub OAuth
// flow, and password hashing for staff accounts.
//
// Two kinds of tokens exist, distinguished by the "aud" claim: player
// tokens (issued after the OAuth callback, subject = identity principal,
// e.g. "github:123") and staff tokens (issued by /staff/login, subject =
// staff ID). A player token is never accepted on a staff route or vice
// versa.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "loyalty-api"

// Audience values stored in the "aud" claim.
const (
	AudiencePlayer = "player"
	AudienceStaff  = "staff"
)

// Token lifetimes. Player tokens are long-lived because the client is a
// kiosk/mobile app without a refresh flow; staff sessions expire daily.
const (
	PlayerTokenTTL = 30 * 24 * time.Hour
	StaffTokenTTL  = 12 * time.Hour
)

// TokenService signs and verifies HS256 JWTs with a shared secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret must be at least
// 16 characters; generate one with e.g. openssl rand -hex 32.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for the given subject and audience.
func (s *TokenService) Generate(subject, audience string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token, requiring the given audience.
// Returns the subject on success.
func (s *TokenService) Validate(tokenStr, audience string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		// Pinning the method prevents algorithm confusion attacks.
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
