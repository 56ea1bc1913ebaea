package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/game/ranking"
	"go.uber.org/zap"
)

// RankingHandler serves the leaderboard.
type RankingHandler struct {
	ranking      *ranking.Service
	defaultLimit int
	logger       *zap.Logger
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(r *ranking.Service, defaultLimit int, logger *zap.Logger) *RankingHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &RankingHandler{ranking: r, defaultLimit: defaultLimit, logger: logger}
}

// Top returns the best players by level then experience.
// GET /api/ranking?limit=20
func (h *RankingHandler) Top(c *gin.Context) {
	limit := h.defaultLimit
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= ranking.MaxEntries {
		limit = l
	}
	entries, err := h.ranking.Top(c.Request.Context(), limit)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}
