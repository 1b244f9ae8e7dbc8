package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/suryamshetty/marine-draw/internal/config"
	"github.com/suryamshetty/marine-draw/internal/logging"
	"github.com/suryamshetty/marine-draw/internal/services"
	"github.com/suryamshetty/marine-draw/internal/session"
)

func main() {
	configPath := flag.String("config", os.Getenv("MARINE_CONFIG"), "Path to YAML config file")
	flag.Parse()

	// A missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logging.New(appConfig.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := zapLogger.Sugar()

	if !appConfig.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(appConfig.Sessions, logger)
	store.StartPeriodicCleanup(ctx, appConfig.Sessions.CleanupInterval)

	missions, err := services.NewMissionService(store, appConfig.Map, logger)
	if err != nil {
		logger.Fatalw("Invalid map configuration", "error", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", appConfig.Server.Port),
		Handler: services.NewRouter(missions, logger),
	}

	go func() {
		logger.Infow("Mission planning server starting",
			"addr", srv.Addr,
			"input_projection", appConfig.Map.InputProjection,
			"max_sessions", appConfig.Sessions.MaxSessions,
			"idle_timeout", appConfig.Sessions.IdleTimeout)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("Shutting down", "timeout", appConfig.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Graceful shutdown failed", "error", err)
	}
}
