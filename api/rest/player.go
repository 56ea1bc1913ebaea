package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/ranking"
	mw "github.com/kasuganosora/textrpg/middleware"
	"go.uber.org/zap"
)

// PlayerHandler serves the authenticated player's profile.
type PlayerHandler struct {
	prog    *progression.Service
	ledger  *boost.Ledger
	ranking *ranking.Service
	logger  *zap.Logger
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(prog *progression.Service, ledger *boost.Ledger, rank *ranking.Service, logger *zap.Logger) *PlayerHandler {
	return &PlayerHandler{prog: prog, ledger: ledger, ranking: rank, logger: logger}
}

// Get handles GET /api/player.
func (h *PlayerHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	key := mw.GetPlayerKey(c)

	st, err := h.prog.Stats(ctx, key)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	eff, err := h.ledger.EffectiveStats(ctx, key)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	resp := gin.H{"stats": st, "effective": eff}
	if rank, ok, err := h.ranking.Rank(ctx, key); err == nil && ok {
		resp["rank"] = rank
	}
	c.JSON(http.StatusOK, resp)
}

// Heal handles POST /api/player/heal.
func (h *PlayerHandler) Heal(c *gin.Context) {
	p, err := h.prog.Heal(c.Request.Context(), mw.GetPlayerKey(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": p, "cost": h.prog.Config().HealCost})
}

// Boosts handles GET /api/boosts.
func (h *PlayerHandler) Boosts(c *gin.Context) {
	bs, err := h.ledger.Active(c.Request.Context(), mw.GetPlayerKey(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boosts": bs})
}
