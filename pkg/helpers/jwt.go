package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager verifies access tokens issued by the identity service.
// Generation is kept for local tooling (seed CLI) and tests.
type JWTManager struct {
	AccessSecret []byte
	AccessTTL    time.Duration
}

func NewJWTManager(accessSecret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret: []byte(accessSecret),
		AccessTTL:    accessTTL,
	}
}

type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func (m *JWTManager) GenerateAccessToken(userID, email, name, sid string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.AccessTTL)
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		Name:      name,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.AccessSecret)
	return s, exp, err
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.AccessSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}
