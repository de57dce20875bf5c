// Package auth — выпуск и проверка JWT токенов, хэширование паролей.
package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL — срок жизни access token.
const TokenTTL = 24 * time.Hour

// Claims — клеймы access token.
type Claims struct {
	jwt.RegisteredClaims

	// OrgID — организация пользователя. Все запросы API
	// ограничены данными этой организации.
	OrgID uuid.UUID `json:"org_id"`

	// Role — роль пользователя (admin, member).
	Role string `json:"role"`
}

// Manager выпускает и проверяет токены.
type Manager struct {
	secret []byte
}

// NewManager создаёт Manager с явным секретом.
func NewManager(secret string) (*Manager, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("jwt secret too short (min 16 bytes)")
	}
	return &Manager{secret: []byte(secret)}, nil
}

// NewManagerFromEnv создаёт Manager из окружения (JWT_SECRET).
func NewManagerFromEnv() (*Manager, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return NewManager(secret)
}

// IssueToken выпускает access token для пользователя.
func (m *Manager) IssueToken(userID, orgID uuid.UUID, role string) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			Issuer:    "freightline",
		},
		OrgID: orgID,
		Role:  role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken проверяет токен и возвращает клеймы.
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// UserID возвращает идентификатор пользователя из клеймов.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse subject: %w", err)
	}
	return id, nil
}

// HashPassword хэширует пароль bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password too short (min 8 characters)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с хэшем.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
