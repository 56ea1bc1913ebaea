package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload. The player key is the opaque
// identifier chat transports use for a player.
type Claims struct {
	PlayerKey string `json:"player_key"`
	Name      string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for the player.
func GenerateToken(playerKey, name, secret string, ttl time.Duration) (string, error) {
	if playerKey == "" {
		return "", errors.New("empty player key")
	}
	now := time.Now()
	claims := &Claims{
		PlayerKey: playerKey,
		Name:      name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerKey,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.PlayerKey == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
