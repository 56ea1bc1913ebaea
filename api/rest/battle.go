package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/game/battle"
	mw "github.com/kasuganosora/textrpg/middleware"
	"go.uber.org/zap"
)

// BattleHandler exposes the battle engine.
type BattleHandler struct {
	engine *battle.Engine
	logger *zap.Logger
}

// NewBattleHandler creates a BattleHandler.
func NewBattleHandler(engine *battle.Engine, logger *zap.Logger) *BattleHandler {
	return &BattleHandler{engine: engine, logger: logger}
}

// Monsters handles GET /api/monsters.
func (h *BattleHandler) Monsters(c *gin.Context) {
	ms, err := h.engine.Monsters(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monsters": ms})
}

type startRequest struct {
	Monster string `json:"monster" binding:"required,max=64"`
}

// Start handles POST /api/battle.
func (h *BattleHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.engine.Start(c.Request.Context(), mw.GetPlayerKey(c), strings.ToLower(strings.TrimSpace(req.Monster)))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"battle": b})
}

// Status handles GET /api/battle.
func (h *BattleHandler) Status(c *gin.Context) {
	v, err := h.engine.Status(c.Request.Context(), mw.GetPlayerKey(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	if v == nil {
		fail(c, h.logger, battle.ErrNoActiveBattle)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battle": v})
}

// Attack handles POST /api/battle/attack.
func (h *BattleHandler) Attack(c *gin.Context) {
	res, err := h.engine.Attack(c.Request.Context(), mw.GetPlayerKey(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "status": res.Status()})
}

// Flee handles POST /api/battle/flee.
func (h *BattleHandler) Flee(c *gin.Context) {
	b, err := h.engine.Flee(c.Request.Context(), mw.GetPlayerKey(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battle": b})
}

// History handles GET /api/battle/history?limit=5.
func (h *BattleHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit > 50 {
		limit = 50
	}
	bs, err := h.engine.Recent(c.Request.Context(), mw.GetPlayerKey(c), limit)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battles": bs})
}
