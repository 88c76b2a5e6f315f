package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Claims struct {
	UserID int64
	Role   models.Role
	ID     string
}

// SignAccessToken issues an HS256 token carrying user_id, user_type and a unique jti.
func SignAccessToken(userID int64, role models.Role, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":   userID,
		"user_type": string(role),
		"jti":       uuid.NewString(),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseAccessToken(raw string, secret []byte, now time.Time) (Claims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil || !t.Valid {
		return Claims{}, fmt.Errorf("invalid access token: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("cannot parse claims")
	}

	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return Claims{}, fmt.Errorf("user_id claim missing")
	}
	role, _ := claims["user_type"].(string)
	jti, _ := claims["jti"].(string)

	return Claims{UserID: int64(id), Role: models.Role(role), ID: jti}, nil
}
