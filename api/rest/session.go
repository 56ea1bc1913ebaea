package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/cache"
	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/progression"
	mw "github.com/kasuganosora/textrpg/middleware"
	"go.uber.org/zap"
)

// SessionHandler issues and revokes player sessions.
type SessionHandler struct {
	prog   *progression.Service
	cache  cache.Cache
	sec    config.SecurityConfig
	logger *zap.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(prog *progression.Service, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{prog: prog, cache: c, sec: sec, logger: logger}
}

type sessionRequest struct {
	PlayerKey string `json:"player_key" binding:"required,max=128"`
	Name      string `json:"name" binding:"max=64"`
}

// Login handles POST /api/session.
// The player is registered on first contact; the token is only valid while
// its session key lives in the cache.
func (h *SessionHandler) Login(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, created, err := h.prog.Register(c.Request.Context(), strings.TrimSpace(req.PlayerKey), strings.TrimSpace(req.Name))
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	token, err := mw.GenerateToken(p.Key, p.Name, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, mw.SessionKey(token), p.Key, h.sec.JWTTTLH); err != nil {
		fail(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"token":   token,
		"created": created,
		"player":  p,
	})
}

// Logout handles DELETE /api/session.
func (h *SessionHandler) Logout(c *gin.Context) {
	tokenStr := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(tokenStr))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
