/*
Package main is the entry point for the WorkChat relay.

It is responsible for loading configuration, initializing the global logging
system, selecting the storage backend, starting the chat service and the two
HTTP servers (front door and WebSocket relay), optionally starting the
history archive worker, and gracefully handling operating system interrupt
signals (SIGINT, SIGTERM) to ensure a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"workchat/internal/app/archive"
	"workchat/internal/app/chat"
	"workchat/internal/app/db"
	"workchat/internal/app/history"
	"workchat/internal/app/store"
	"workchat/internal/auth"
	"workchat/internal/configs"
	"workchat/internal/handler"
	"workchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Int("chat_port", cfg.ChatPort).
		Str("storage_backend", cfg.StorageBackend).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Select the storage backend.
	var (
		identityStore store.Store
		historyLog    history.Log
		pool          *pgxpool.Pool
	)

	switch cfg.StorageBackend {
	case configs.BackendPostgres:
		pool, err = db.NewPool(cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to database")
		}
		defer pool.Close()

		identityStore = store.NewPostgresStore(pool)
		historyLog = history.NewPostgresLog(pool)

	default:
		fileStore, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			logx.Fatal(err, "Failed to open identity store")
		}
		identityStore = fileStore

		fileLog, err := history.NewFileLog(filepath.Join(cfg.DataDir, "messages"))
		if err != nil {
			logx.Fatal(err, "Failed to open history log")
		}
		historyLog = fileLog
	}

	// Initialize the chat service and the OAuth provider.
	chatService := chat.NewService(identityStore, historyLog)

	oauthProvider := auth.NewGoogleProvider(auth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
	})

	deps := &handler.AppDeps{
		Config: cfg,
		Chat:   chatService,
		Store:  identityStore,
		OAuth:  oauthProvider,
	}

	// Start the history archive worker when S3 is configured.
	if cfg.ArchiveEnabled() {
		uploader, err := archive.NewS3Uploader(archive.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize S3 uploader")
		}

		archiver := archive.New(historyLog, uploader, cfg.ArchiveInterval)
		go archiver.Run(ctx)
	}

	// Set up the two servers.
	frontDoorAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	frontDoor := &http.Server{
		Addr:         frontDoorAddr,
		Handler:      handler.FrontDoorRouter(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	chatAddr := fmt.Sprintf(":%d", cfg.ChatPort)
	chatServer := &http.Server{
		Addr:        chatAddr,
		Handler:     handler.ChatRouter(deps),
		ReadTimeout: 5 * time.Second,
		// No WriteTimeout: WebSocket connections outlive any sane value,
		// and write deadlines are managed per frame by the client pump.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("WorkChat front door starting on http://localhost%s", frontDoorAddr))
		if err := frontDoor.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Front door server failed to start")
		}
	}()

	go func() {
		logx.Info(fmt.Sprintf("WorkChat relay starting on ws://localhost%s/ws", chatAddr))
		if err := chatServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Chat server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown both servers with a
	// timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := chatServer.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Chat server forced to shutdown")
	}

	if err := frontDoor.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Front door server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
