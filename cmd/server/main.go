package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/api/handler"
	"github.com/eddwmvv/projetovereler-sub001/internal/api/router"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/database"
	"github.com/eddwmvv/projetovereler-sub001/pkg/jwt"
	applogger "github.com/eddwmvv/projetovereler-sub001/pkg/logger"
	"github.com/eddwmvv/projetovereler-sub001/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("VERELER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting server",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	logger.Info("database connected")

	// 3.1 migrations
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// 4. redis (optional: revocation, sign-in rate limit and report cache are off without it)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without token revocation and report cache", zap.Error(err))
		rdb = nil
	}
	var (
		blacklist service.TokenBlacklist
		cache     service.ReportCache
	)
	if rdb != nil {
		blacklist = rdb
		cache = rdb
	}

	// 5. JWT
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, cache, logger)
	h := handler.NewHandler(svc)

	// 7. routes
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// 9. wait for a signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
