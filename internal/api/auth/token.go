package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/profilehub/profilehub/config"
	"github.com/profilehub/profilehub/internal/api"
)

// Token verification failure modes. Callers must not trust any identity
// claim from a request that did not pass ValidateAccessToken.
var (
	ErrMissingToken = errors.New("authentication token required")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the session token claims. They are never persisted; each request
// reconstructs them from the signed token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a signed HS256 token for the user, valid for
// jwtCfg.TokenTTL from now.
func GenerateAccessToken(user *api.UserAuth, jwtCfg config.JWTConfig) (string, error) {
	if jwtCfg.SecretKey == "" {
		return "", fmt.Errorf("JWT secret key is not configured")
	}

	now := time.Now()
	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{jwtCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtCfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtCfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature, expiry, issuer, audience, and
// subject-id format. It returns claims only when every check passes.
func ValidateAccessToken(tokenString string, jwtCfg config.JWTConfig) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtCfg.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	if jwtCfg.Issuer != "" && claims.Issuer != jwtCfg.Issuer {
		return nil, ErrInvalidToken
	}
	if !api.VerifyAudience(claims.Audience, jwtCfg.Audience) {
		return nil, ErrInvalidToken
	}

	// Subject must be a well-formed identifier before anything downstream
	// trusts it.
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
