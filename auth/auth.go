// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identifies the caller. ID is the owner id every record is scoped by.
type Claims struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// BearerToken strips the "Bearer " prefix from an Authorization header value
func BearerToken(header string) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// ParseToken verifies an HMAC-signed JWT against the shared secret.
// Expired, malformed or wrongly signed tokens all yield ErrInvalidToken.
func ParseToken(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: no secret configured", ErrInvalidToken)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	if claims.Roles == nil {
		claims.Roles = []string{}
	}

	return claims, nil
}

// IssueToken signs claims with HS256. A zero ttl produces a token without expiry.
func IssueToken(id, email string, roles []string, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("token secret required")
	}

	now := time.Now()
	claims := Claims{
		ID:    id,
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// GenerateID creates a short, URL-safe random identifier for a stored record
func GenerateID() (string, error) {
	b := make([]byte, 8)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return base62Encode(b), nil
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}
