package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/common"
)

// Claims carried in access and refresh tokens.
type Claims struct {
	Role constants.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssueAccess returns a short-lived access token for the user.
func (m *TokenManager) IssueAccess(userID uuid.UUID, role constants.UserRole) (string, error) {
	return m.issue(userID, role, m.accessTTL)
}

// IssueRefresh returns a long-lived refresh token for the user.
func (m *TokenManager) IssueRefresh(userID uuid.UUID, role constants.UserRole) (string, error) {
	return m.issue(userID, role, m.refreshTTL)
}

func (m *TokenManager) issue(userID uuid.UUID, role constants.UserRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token, returning the user id and role.
func (m *TokenManager) Verify(token string) (uuid.UUID, constants.UserRole, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, "", common.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", common.ErrUnauthorized
	}
	return userID, claims.Role, nil
}
