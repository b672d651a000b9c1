package pkg

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer       = "modgraph"
	accessTokenType   = "access"
	refreshTokenType  = "refresh"
	defaultExpMinutes = 60
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by access tokens
type Claims struct {
	UserID    uint   `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// GenerateToken signs an access token valid for expirationMinutes
func GenerateToken(userID uint, email string, role string, secret string, expirationMinutes int) (string, error) {
	if expirationMinutes <= 0 {
		expirationMinutes = defaultExpMinutes
	}
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expirationMinutes) * time.Minute)),
		},
	}
	return sign(claims, secret)
}

// GenerateRefreshToken signs a refresh token valid for expirationDays
func GenerateRefreshToken(userID uint, secret string, expirationDays int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.AddDate(0, 0, expirationDays)),
		},
	}
	return sign(claims, secret)
}

// ValidateToken parses an access token and returns its claims
func ValidateToken(token string, secret string) (*Claims, error) {
	return parse(token, secret, accessTokenType)
}

// ValidateRefreshToken parses a refresh token and returns its claims
func ValidateRefreshToken(token string, secret string) (*Claims, error) {
	return parse(token, secret, refreshTokenType)
}

func sign(claims Claims, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parse(token string, secret string, tokenType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
