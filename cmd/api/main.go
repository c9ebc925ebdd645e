package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/classifier"
	"inbox-scout-go/internal/config"
	"inbox-scout-go/internal/database"
	"inbox-scout-go/internal/fetcher"
	handlerPkg "inbox-scout-go/internal/handler"
	"inbox-scout-go/internal/indexer"
	metricsPkg "inbox-scout-go/internal/metrics"
	"inbox-scout-go/internal/notifier"
	"inbox-scout-go/internal/parser"
	"inbox-scout-go/internal/scheduler"
	"inbox-scout-go/internal/secrets"
	"inbox-scout-go/internal/server"
	"inbox-scout-go/internal/service"
	"inbox-scout-go/internal/store"
)

func main() {
	// Configure logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Inbox Scout Service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize database
	db, err := database.Init(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize credential cipher and account store
	cipher, err := secrets.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		logrus.Fatalf("Failed to initialize cipher: %v", err)
	}
	accounts := store.NewAccountStore(db, cipher)

	// Initialize search index
	idx, err := indexer.New(cfg.Index)
	if err != nil {
		logrus.Fatalf("Failed to create index client: %v", err)
	}
	if err := idx.EnsureIndex(context.Background()); err != nil {
		logrus.Fatalf("Failed to ensure index: %v", err)
	}

	// Initialize metrics
	metrics := metricsPkg.New()

	// Initialize pipeline components
	connector := fetcher.NewIMAPConnector()
	mimeParser := parser.NewParser()
	llm := classifier.NewOllamaClient(cfg.Inference)
	engine := classifier.NewEngine(classifier.DefaultRules(), llm)
	alerts := notifier.New(cfg.Notify)

	// Initialize sync and chat services
	syncService := service.NewSyncService(connector, mimeParser, engine, idx, alerts, metrics)
	chatService := service.NewChatService(idx, llm)

	// Initialize scheduler
	sched := scheduler.New(&cfg.Scheduler, accounts, syncService)

	// Initialize HTTP handlers
	handlers := handlerPkg.New(db, accounts, syncService, idx, chatService, sched)

	// Setup HTTP server
	r := server.SetupRouter(handlers)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start scheduler
	if err := sched.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler
	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}

	// Wait for scheduler to finish
	sched.Wait()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	// Drain in-flight notifications
	alerts.Wait()

	logrus.Info("Server stopped gracefully")
}
