// utils/token.go
package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
)

// PhoneClaims are the claims carried by a phone-verification token.
type PhoneClaims struct {
	Phone string `json:"phone"`
	jwt.StandardClaims
}

// GetJWTSecret returns the signing secret from the environment
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "examsaathi-dev-secret"
	}
	return secret
}

// GenerateVerificationToken mints an HS256 token asserting that phone
// completed OTP verification. Valid for 24 hours.
func GenerateVerificationToken(phone string) (string, error) {
	now := time.Now()
	claims := &PhoneClaims{
		Phone: phone,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(24 * time.Hour).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(GetJWTSecret()))
}

// ParseVerificationToken validates a verification token and returns its claims.
func ParseVerificationToken(tokenString string) (*PhoneClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PhoneClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(GetJWTSecret()), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*PhoneClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
