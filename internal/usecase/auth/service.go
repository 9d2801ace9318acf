package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kr1s57/linkshield/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service issues and validates API tokens. There is a single operator
// account, configured as a bcrypt hash; user management is out of scope.
type Service struct {
	secret    []byte
	expiry    time.Duration
	adminUser string
	adminHash string
}

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates a new auth service
func NewService(cfg config.JWTConfig) *Service {
	expiry := cfg.Expiry
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &Service{
		secret:    []byte(cfg.Secret),
		expiry:    expiry,
		adminUser: cfg.AdminUser,
		adminHash: cfg.AdminPasswordHash,
	}
}

// Enabled reports whether token auth is configured at all. With no secret
// the protected routes stay open (development mode).
func (s *Service) Enabled() bool {
	return len(s.secret) > 0 && s.adminHash != ""
}

// Login checks the operator credentials and returns a signed token.
func (s *Service) Login(username, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrInvalidCredentials
	}
	if username != s.adminUser {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.GenerateToken(username, "admin")
}

// GenerateToken creates a signed JWT for the given identity.
func (s *Service) GenerateToken(username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
