package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/cache"
	"github.com/kasuganosora/textrpg/config"
)

const (
	PlayerKeyKey  = "player_key"
	PlayerNameKey = "player_name"

	// SessionPrefix namespaces live session tokens in the cache.
	SessionPrefix = "session:"
)

// SessionKey is the cache key of a session token.
func SessionKey(token string) string { return SessionPrefix + token }

// Auth validates the Bearer token and checks that its session is still live
// in the cache, so that deleting the session key logs the player out.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		owner, err := c.Get(cacheCtx, SessionKey(tokenStr))
		if err != nil || owner != claims.PlayerKey {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		ctx.Set(PlayerKeyKey, claims.PlayerKey)
		ctx.Set(PlayerNameKey, claims.Name)
		ctx.Next()
	}
}

// GetPlayerKey returns the authenticated player key, or "".
func GetPlayerKey(c *gin.Context) string {
	return c.GetString(PlayerKeyKey)
}

// GetPlayerName returns the display name carried by the session token.
func GetPlayerName(c *gin.Context) string {
	return c.GetString(PlayerNameKey)
}

// AdminKey guards operator endpoints with a shared key sent in the
// X-Admin-Key header. An empty key disables the endpoints entirely.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
