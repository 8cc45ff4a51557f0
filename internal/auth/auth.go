package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims - содержимое JWT. Subject совпадает с идентификатором профиля пользователя.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет токены, подписанные HS256.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создает новый экземпляр TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken выпускает токен для пользователя.
func (m *TokenManager) GenerateToken(actor models.Actor) (string, error) {
	if actor.ID == "" {
		return "", fmt.Errorf("actor id is required")
	}
	now := time.Now()
	claims := &Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken проверяет токен и возвращает пользователя, от имени которого он выпущен.
func (m *TokenManager) ParseToken(tokenString string) (models.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	switch claims.Role {
	case models.ShipperRole, models.TruckerRole, models.AdminRole:
	default:
		return models.Actor{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return models.Actor{}, ErrInvalidToken
	}
	return models.Actor{ID: claims.Subject, Role: claims.Role}, nil
}
