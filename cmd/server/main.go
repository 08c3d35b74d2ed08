package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	httpapi "prestamos-backend/internal/api/http"
	"prestamos-backend/internal/config"
	"prestamos-backend/internal/logger"
	"prestamos-backend/internal/repository/postgres"
	"prestamos-backend/internal/security"
	"prestamos-backend/internal/service"
	"prestamos-backend/internal/session"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Prestamos Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize the chat session store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var sessions session.Store
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warn("Redis unreachable, chat sessions held in memory", "addr", cfg.Redis.Addr, "error", err)
		sessions = session.NewMemoryStore()
	} else {
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
		sessions = session.NewRedisStore(rdb, time.Duration(cfg.Redis.SessionTTLMinutes)*time.Minute)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	loc := cfg.Location()

	// Initialize Services
	notifier := service.NewWebhookNotifier(cfg.Notify.WebhookURL, time.Duration(cfg.Notify.TimeoutSeconds)*time.Second)
	inventorySvc := service.NewInventoryService(store, notifier)
	loanSvc := service.NewLoanService(store, notifier)
	reservationSvc := service.NewReservationService(store, notifier, loc, cfg.Campus.ClosingHour)
	chatSvc := service.NewChatService(sessions, inventorySvc, reservationSvc, loanSvc, loc)
	forecastClient := service.NewForecastClient(cfg.Forecast.BaseURL, time.Duration(cfg.Forecast.TimeoutSeconds)*time.Second)
	forecastSvc := service.NewForecastService(store, forecastClient, loc,
		cfg.Forecast.EnsembleWeight, cfg.Forecast.TardyMedium, cfg.Forecast.TardyHigh)
	maintenanceSvc := service.NewMaintenanceService(store)
	reportSvc := service.NewReportService(store, notifier, loc)

	router := httpapi.NewRouter(httpapi.Services{
		Inventory:    inventorySvc,
		Loans:        loanSvc,
		Reservations: reservationSvc,
		Chat:         chatSvc,
		Forecast:     forecastSvc,
		Maintenance:  maintenanceSvc,
		Reports:      reportSvc,
	}, tokenManager, cfg.Campus.RiskThreshold)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
