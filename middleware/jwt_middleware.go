// middleware/jwt_middleware.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/golang-jwt/jwt"
)

// JwtCustomClaims for locally issued development tokens
type JwtCustomClaims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// Valid implements the Claims interface
func (c JwtCustomClaims) Valid() error {
	now := time.Now().Unix()
	// Check if token is expired (skip check if ExpiresAt is 0)
	if c.ExpiresAt > 0 && now > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && now < c.NotBefore {
		return errors.New("token used before valid")
	}
	if c.UserID == "" {
		return errors.New("token has no user id")
	}
	if !c.Role.Valid() {
		return fmt.Errorf("token has unknown role %q", c.Role)
	}
	return nil
}

// HS256Verifier verifies tokens signed with a shared secret. It replaces Firebase in
// local development (AUTH_PROVIDER=jwt).
type HS256Verifier struct {
	secret []byte
}

func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret)}
}

func (v *HS256Verifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// GenerateJWT signs a development token. A zero ttl never expires.
func GenerateJWT(secret, userID, email string, role models.Role, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret is required")
	}
	now := time.Now()
	claims := &JwtCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt: now.Unix(),
			Subject:  userID,
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
