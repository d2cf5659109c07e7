package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"premium-homes/internal/models"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the fields carried in an access token.
type Claims struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	AgentID  string      `json:"agentId,omitempty"`
	jwt.RegisteredClaims
}

// User returns the descriptor encoded in the claims.
func (c *Claims) User() models.UserInfo {
	return models.UserInfo{ID: c.ID, Username: c.Username, Role: c.Role, AgentID: c.AgentID}
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
}

// Issue signs a token for u.
func (m *TokenManager) Issue(u models.UserInfo) (string, error) {
	now := m.now()
	claims := Claims{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		AgentID:  u.AgentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
