package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/audit"
	"github.com/kasuganosora/textrpg/game/gameerr"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/metrics"
	"github.com/kasuganosora/textrpg/plugin/hook"
	"github.com/kasuganosora/textrpg/scheduler"
	"go.uber.org/zap"
)

var (
	errTaskNotFound = gameerr.New(gameerr.NotFound, "TASK_NOT_FOUND", "no such scheduler task")
	errHookNotFound = gameerr.New(gameerr.NotFound, "HOOK_NOT_FOUND", "no handlers registered under that name")
)

// AdminHandler handles operator endpoints. Routes must be guarded by
// middleware.AdminKey.
type AdminHandler struct {
	prog   *progression.Service
	jobs   *scheduler.Jobs
	sched  *scheduler.Scheduler
	hooks  *hook.Center
	audit  *audit.Service
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	prog *progression.Service,
	jobs *scheduler.Jobs,
	sched *scheduler.Scheduler,
	hooks *hook.Center,
	auditSvc *audit.Service,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{prog: prog, jobs: jobs, sched: sched, hooks: hooks, audit: auditSvc, logger: logger}
}

// DailyReset clears every player's daily battle counter now, including
// players who already battled today.
// POST /api/admin/daily-reset
func (h *AdminHandler) DailyReset(c *gin.Context) {
	n, err := h.prog.ClearAllDailyAttempts(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	metrics.DailyReset(n)
	h.logger.Info("daily counters cleared by operator", zap.Int("players", n))
	c.JSON(http.StatusOK, gin.H{"message": "daily counters reset", "players": n})
}

// ResetPlayer clears one player's daily battle counter.
// POST /api/admin/players/:key/reset
func (h *AdminHandler) ResetPlayer(c *gin.Context) {
	p, err := h.prog.ResetDailyAttempts(c.Request.Context(), c.Param("key"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": p})
}

// RefreshRanking rebuilds the cached leaderboard.
// POST /api/admin/ranking/refresh
func (h *AdminHandler) RefreshRanking(c *gin.Context) {
	if err := h.jobs.RefreshRanking(c.Request.Context()); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ranking refreshed"})
}

// Audit lists a player's most recent commands.
// GET /api/admin/audit/:key?limit=50
func (h *AdminHandler) Audit(c *gin.Context) {
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}
	logs, err := h.audit.Recent(c.Request.Context(), c.Param("key"), limit)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs})
}

// Scheduler lists the registered background tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) Scheduler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// RemoveTask stops a background task until the next restart.
// DELETE /api/admin/scheduler/:name
func (h *AdminHandler) RemoveTask(c *gin.Context) {
	if !h.sched.Remove(c.Param("name")) {
		fail(c, h.logger, errTaskNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// RemoveHook unregisters every handler of the named add-on.
// DELETE /api/admin/hooks/:name
func (h *AdminHandler) RemoveHook(c *gin.Context) {
	n := h.hooks.Unregister(c.Param("name"))
	if n == 0 {
		fail(c, h.logger, errHookNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
