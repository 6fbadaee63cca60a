package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Subject is the token subject for the single operator account.
const Subject = "operator"

// Service issues and validates access tokens for the single-operator
// deployment: one bcrypt-hashed access password unlocks the editor.
type Service struct {
	jwtSecret    []byte
	passwordHash []byte
	tokenTTL     time.Duration
}

func NewService(jwtSecret, passwordHash string) *Service {
	return &Service{
		jwtSecret:    []byte(jwtSecret),
		passwordHash: []byte(passwordHash),
		tokenTTL:     24 * time.Hour,
	}
}

type AuthResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Authenticate checks the access password and issues a token.
func (s *Service) Authenticate(password string) (*AuthResult, error) {
	if len(s.passwordHash) == 0 {
		return nil, errors.New("access password not configured")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiry := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub": Subject,
		"iat": time.Now().Unix(),
		"exp": expiry.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResult{Token: signed, ExpiresAt: expiry.Unix()}, nil
}

// ValidateToken parses a token and returns its subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject != Subject {
		return "", errors.New("invalid token subject")
	}

	return subject, nil
}
