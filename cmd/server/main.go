// Command server runs the MTG engine's HTTP + WebSocket process, grounded
// on the teacher's cmd/server/main.go wiring shape (repository -> usecase
// -> handler -> hub.Run -> gin router -> listen), generalized to this
// engine's registry/executor/hub graph.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mtgserver/internal/catalogclient"
	"mtgserver/internal/config"
	"mtgserver/internal/engine/catalog"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/effect/luaexec"
	"mtgserver/internal/engine/eventlog"
	"mtgserver/internal/engine/eventlog/pg"
	"mtgserver/internal/engine/registry"
	"mtgserver/internal/engine/session"
	"mtgserver/internal/logger"
	transporthttp "mtgserver/internal/transport/http"
	"mtgserver/internal/transport/ws"
)

func main() {
	cfgPath := os.Getenv("MTG_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.toml"
	}
	cfg, cfgErr := config.Load(cfgPath)
	if cfgErr != nil {
		cfg = config.Default()
	}

	if err := logger.Init(&cfg.Log.Level); err != nil {
		panic(err)
	}
	log := logger.Get()
	defer log.Sync()

	if cfgErr != nil {
		log.Warn("no config file found, using defaults", zap.String("path", cfgPath), zap.Error(cfgErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store eventlog.Store
	if cfg.Database.DSN != "" {
		pgStore, err := pg.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal("connect event log database", zap.Error(err))
		}
		defer pgStore.Close()
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatal("migrate event log database", zap.Error(err))
		}
		store = pgStore
		log.Info("event log backed by postgres")
	} else {
		store = eventlog.NewMemoryStore()
		log.Info("event log backed by in-memory store (not durable across restarts)")
	}

	var cat catalog.Catalog = catalogclient.New(cfg.Catalog.BaseURL)

	effects := effect.NewRegistry()
	if scripts, err := luaexec.LoadDir(cfg.Scripts.Dir); err != nil {
		log.Warn("no lua script directory found, running with built-in effects only", zap.String("dir", cfg.Scripts.Dir), zap.Error(err))
	} else {
		for _, s := range scripts {
			effects.Register(s)
		}
		log.Info("loaded lua effect descriptors", zap.Int("count", len(scripts)))
	}

	reg := registry.New()
	hub := ws.NewHub(reg, log)
	go hub.Run(ctx)

	router := transporthttp.NewRouter(transporthttp.Deps{
		Registry: reg,
		Store:    store,
		Catalog:  cat,
		Effects:  effects,
		Logger:   log,
		OnCreate: func(e *session.Executor) { e.OnUpdate(hub.BroadcastView) },
	})
	router.Any(cfg.Server.WSPath, gin.WrapF(ws.ServeHTTP(hub, log)))

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: router}
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
