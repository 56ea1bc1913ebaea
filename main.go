package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/textrpg/api/rest"
	"github.com/kasuganosora/textrpg/audit"
	"github.com/kasuganosora/textrpg/cache"
	"github.com/kasuganosora/textrpg/config"
	dbadapter "github.com/kasuganosora/textrpg/db"
	"github.com/kasuganosora/textrpg/game/battle"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/command"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/ranking"
	"github.com/kasuganosora/textrpg/game/shop"
	mw "github.com/kasuganosora/textrpg/middleware"
	"github.com/kasuganosora/textrpg/model"
	"github.com/kasuganosora/textrpg/plugin/hook"
	"github.com/kasuganosora/textrpg/scheduler"
	"github.com/kasuganosora/textrpg/store"
	"go.uber.org/zap"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" || cfg.Security.JWTSecret == "change-me" {
		logger.Warn("security.jwt_secret is not set to a private value")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	st := store.New(db)
	if err := st.Monsters.Seed(context.Background(), model.DefaultMonsters()); err != nil {
		log.Fatalf("seed monsters: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Hooks ----
	hooks := hook.NewCenter(logger)
	hooks.Register(hook.PlayerLevelUp, 0, "announce", func(_ context.Context, ev hook.Event) error {
		if lvl, ok := ev.Data.(*progression.LevelUp); ok {
			logger.Info("player leveled up",
				zap.String("player", ev.PlayerKey),
				zap.Int("from", lvl.OldLevel),
				zap.Int("to", lvl.NewLevel))
		}
		return nil
	})

	// ---- Game Services ----
	rank := ranking.NewService(st.Players, c, logger)
	prog := progression.NewService(st.Players, rank, cfg.Game, logger)
	ledger := boost.NewLedger(st.Boosts, st.Players, logger)
	engine := battle.NewEngine(prog, ledger, st.Monsters, st.Battles, c, battle.Config{
		Game:   cfg.Game,
		Logger: logger,
		Hooks:  hooks,
	})
	shopSvc := shop.NewService(prog, ledger, logger)
	dispatcher := command.NewDispatcher(command.Deps{
		Progression: prog,
		Battles:     engine,
		Shop:        shopSvc,
		Boosts:      ledger,
		Ranking:     rank,
		Audit:       auditSvc,
		Game:        cfg.Game,
		Logger:      logger,
	})

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	jobs := &scheduler.Jobs{Progression: prog, Ranking: rank, Logger: logger}
	jobs.Register(sched, cfg.Game.Location(), cfg.Game.RankingRefresh)
	jobs.Warmup(sched)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger), mw.Metrics())

	apirest.Register(r, apirest.Deps{
		Config:      cfg,
		Cache:       c,
		Progression: prog,
		Ledger:      ledger,
		Ranking:     rank,
		Battles:     engine,
		Shop:        shopSvc,
		Dispatcher:  dispatcher,
		Audit:       auditSvc,
		Jobs:        jobs,
		Scheduler:   sched,
		Hooks:       hooks,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
