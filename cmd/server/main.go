package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/shared-lists/internal/api"
	"github.com/dom/shared-lists/internal/config"
	"github.com/dom/shared-lists/internal/logger"
	"github.com/dom/shared-lists/internal/repository/postgres"
	"github.com/dom/shared-lists/internal/service"
	"github.com/dom/shared-lists/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so this is the one plain exit.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	// Connect and migrate
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	repos := postgres.NewRepositories(db)

	// The hub checks list existence on subscribe and receives committed
	// mutations through the emitter.
	hub := websocket.NewHub(repos.List, log)
	go hub.Run()

	services := service.NewServices(repos, cfg, websocket.NewEventEmitter(hub), log)

	router := api.NewRouter(services, hub, cfg, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	hub.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server stopped")
}
