package jwtutil

import (
	"time"

	"pms-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var secret = []byte("secret-key")

// Initialize sets the signing key from configuration
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		secret = []byte(cfg.SigningKey)
	}
}

// RememberClaims represents the JWT claims carried by the remember-me cookie
type RememberClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateRememberToken creates a signed remember-me token for the user
func GenerateRememberToken(userID uint, email string, validity time.Duration) (string, error) {
	claims := RememberClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateRememberToken validates and parses a remember-me token
func ValidateRememberToken(tokenString string) (*RememberClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RememberClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*RememberClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
