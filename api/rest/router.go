package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/audit"
	"github.com/kasuganosora/textrpg/cache"
	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/battle"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/command"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/ranking"
	"github.com/kasuganosora/textrpg/game/shop"
	"github.com/kasuganosora/textrpg/metrics"
	mw "github.com/kasuganosora/textrpg/middleware"
	"github.com/kasuganosora/textrpg/plugin/hook"
	"github.com/kasuganosora/textrpg/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Config      *config.Config
	Cache       cache.Cache
	Progression *progression.Service
	Ledger      *boost.Ledger
	Ranking     *ranking.Service
	Battles     *battle.Engine
	Shop        *shop.Service
	Dispatcher  *command.Dispatcher
	Audit       *audit.Service
	Jobs        *scheduler.Jobs
	Scheduler   *scheduler.Scheduler
	Hooks       *hook.Center
	Logger      *zap.Logger
}

// Register mounts every route on r.
func Register(r *gin.Engine, d Deps) {
	cfg := d.Config

	sessionH := NewSessionHandler(d.Progression, d.Cache, cfg.Security, d.Logger)
	playerH := NewPlayerHandler(d.Progression, d.Ledger, d.Ranking, d.Logger)
	battleH := NewBattleHandler(d.Battles, d.Logger)
	shopH := NewShopHandler(d.Shop, d.Logger)
	rankH := NewRankingHandler(d.Ranking, cfg.Game.LeaderboardLimit, d.Logger)
	cmdH := NewCommandHandler(d.Dispatcher)
	adminH := NewAdminHandler(d.Progression, d.Jobs, d.Scheduler, d.Hooks, d.Audit, d.Logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Anonymous routes are limited per IP, authenticated ones per player.
	limit := func() gin.HandlerFunc {
		if cfg.Security.RateLimitRPS <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	}

	api := r.Group("/api")
	{
		public := api.Group("")
		public.Use(limit())
		public.POST("/session", sessionH.Login)
		public.GET("/shop", shopH.List)
		public.GET("/ranking", rankH.Top)

		authed := api.Group("")
		authed.Use(mw.Auth(cfg.Security, d.Cache), limit())
		authed.DELETE("/session", sessionH.Logout)

		authed.GET("/player", playerH.Get)
		authed.POST("/player/heal", playerH.Heal)
		authed.GET("/boosts", playerH.Boosts)

		authed.GET("/monsters", battleH.Monsters)
		authed.POST("/battle", battleH.Start)
		authed.GET("/battle", battleH.Status)
		authed.POST("/battle/attack", battleH.Attack)
		authed.POST("/battle/flee", battleH.Flee)
		authed.GET("/battle/history", battleH.History)

		authed.POST("/shop/buy", shopH.Buy)
		authed.POST("/command", cmdH.Handle)

		adminG := api.Group("/admin")
		adminG.Use(mw.AdminKey(cfg.Server.AdminKey))
		adminG.POST("/daily-reset", adminH.DailyReset)
		adminG.POST("/players/:key/reset", adminH.ResetPlayer)
		adminG.POST("/ranking/refresh", adminH.RefreshRanking)
		adminG.GET("/audit/:key", adminH.Audit)
		adminG.GET("/scheduler", adminH.Scheduler)
		adminG.DELETE("/scheduler/:name", adminH.RemoveTask)
		adminG.DELETE("/hooks/:name", adminH.RemoveHook)
	}
}
