package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	_ "support-feed/docs"
	"support-feed/internal/api"
	"support-feed/internal/auth"
	"support-feed/internal/changefeed"
	"support-feed/internal/config"
	"support-feed/internal/manager"
	"support-feed/internal/messaging"
	"support-feed/internal/metrics"
	"support-feed/internal/storage"
	"support-feed/internal/worker"
)

// @title Support Feed API
// @version 1.0
// @description Realtime flagged-message feed for support teams, scoped per workspace
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Configuration & logger
	_ = godotenv.Load()
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(strings.ToUpper(cfg.LogLevel))
	log.Info("Configuration loaded")

	metrics.Init()
	auth.SetSecret(cfg.Auth.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to init DB: %w", err)
	}
	defer func() {
		log.Info("Closing PostgreSQL...")
		_ = db.DB.Close()
	}()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	log.Info("PostgreSQL connected")

	// RabbitMQ
	rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL, log)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer func() { _ = rabbitClient.Close() }()
	log.Info("RabbitMQ connected")

	// Notification dispatch pool, shared by every session
	pool := worker.NewPool("notify", log, cfg.Workers, cfg.Notify.QueueSize)
	pool.Start()
	defer pool.Stop()

	store := changefeed.NewClient(db, rabbitClient, changefeed.AMQPSubscriber(rabbitClient.GetConnection(), log), log)
	wm := manager.NewWorkspaceManager(db, rabbitClient, log)

	// Recover existing workspaces
	workspaces, err := db.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workspaces: %w", err)
	}
	for _, ws := range workspaces {
		if err := wm.EnsureWorkspace(ctx, ws.ID); err != nil {
			log.Warn("Failed to recover workspace", "workspace", ws.ID, "error", err)
			continue
		}
		log.Info("Recovered workspace", "workspace", ws.ID, "name", ws.Name)
	}

	go watchDeadLetters(ctx, log, rabbitClient, wm)

	apiHandler := api.NewAPI(wm, db, store, store, pool, cfg, log)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting API server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown initiated...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Websocket connections are hijacked, Shutdown does not wait for them.
	wm.ShutdownAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", "error", err)
	}

	log.Info("Graceful shutdown complete")
	return nil
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// watchDeadLetters refreshes the dead-letter depth gauges until ctx ends.
func watchDeadLetters(ctx context.Context, log *slog.Logger, rabbit *messaging.RabbitClient, wm *manager.WorkspaceManager) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Dead-letter watcher stopped")
			return
		case <-ticker.C:
			for _, workspaceID := range wm.ListWorkspaceIDs() {
				rabbit.UpdateDeadLetterDepth(workspaceID)
			}
		}
	}
}
