package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gtarallo/assistenza-tecnica/internal/assignment"
	"github.com/gtarallo/assistenza-tecnica/internal/audit"
	"github.com/gtarallo/assistenza-tecnica/internal/config"
	"github.com/gtarallo/assistenza-tecnica/internal/database"
	"github.com/gtarallo/assistenza-tecnica/internal/handler"
	"github.com/gtarallo/assistenza-tecnica/internal/logger"
	"github.com/gtarallo/assistenza-tecnica/internal/middleware"
	"github.com/gtarallo/assistenza-tecnica/internal/repository"
	"github.com/gtarallo/assistenza-tecnica/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "assistenza-tecnica")
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zlog.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil disables rate limiting and caching
	if rdb == nil {
		zlog.Warn("redis unavailable; rate limiting and response cache disabled")
	}

	identities := repository.NewIdentityRepo(db)
	products := repository.NewProductRepo(db)
	malfunctions := repository.NewMalfunctionRepo(db)
	tokens := repository.NewTokenRepo(db)
	directory := assignment.NewDirectory(products, identities)

	recorder := audit.NewQueueRecorder(zlog)
	gate := middleware.NewGate(recorder)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.ResolveIdentity(cfg.JWTSecret))

	router.RegisterRoutes(e, router.Deps{
		Gate:         gate,
		Auth:         handler.NewAuthHandler(cfg, identities, tokens),
		AdminUsers:   handler.NewAdminUserHandler(cfg, identities),
		Products:     handler.NewProductHandler(products, directory),
		Malfunctions: handler.NewMalfunctionHandler(malfunctions, products),
		Dashboard:    handler.NewDashboardHandler(directory, malfunctions, products),
		RateLimit:    middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		Cache:        middleware.ResponseCache(config.LoadCacheConfig(), rdb),
	})

	var g errgroup.Group
	g.Go(func() error {
		// Reconnect loop; only returns on unrecoverable setup failure.
		return audit.StartConsumer()
	})
	g.Go(func() error {
		addr := ":" + cfg.Port
		zlog.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		return e.Start(addr)
	})
	if err := g.Wait(); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
