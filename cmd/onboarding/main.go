package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/adleverage/ads-onboarding/api"
	"github.com/adleverage/ads-onboarding/internal/ads"
	"github.com/adleverage/ads-onboarding/internal/config"
	"github.com/adleverage/ads-onboarding/internal/payments"
	"github.com/adleverage/ads-onboarding/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Create logger
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLogger, err := logger.NewLogger(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connect to the Google Ads API
	adsClient, err := ads.NewGRPCClient(cfg.Ads)
	if err != nil {
		zapLogger.Fatal("Failed to create Google Ads client", zap.Error(err))
	}
	defer adsClient.Close()

	accountsSvc, err := ads.NewService(zapLogger, adsClient, cfg.Ads.LoginCustomerID, cfg.Ads.PaymentsAccountID)
	if err != nil {
		zapLogger.Fatal("Failed to create account gateway", zap.Error(err))
	}

	// Connect to the payment store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := payments.NewMongoStore(ctx, cfg.Mongo, zapLogger)
	cancel()
	if err != nil {
		zapLogger.Fatal("Failed to connect to payment store", zap.Error(err))
	}

	// Payment gateway client
	gateway, err := payments.NewLeptageClient(cfg.Leptage, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create payment gateway client", zap.Error(err))
	}

	// Create API server
	apiServer := api.NewServer(zapLogger, accountsSvc, store, gateway, cfg.Leptage.DefaultCurrency)

	// Start services
	if err := accountsSvc.Start(); err != nil {
		zapLogger.Fatal("Failed to start account gateway", zap.Error(err))
	}

	// Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		if err := apiServer.Start(addr); err != nil {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	// Wait for interrupt to shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	if err := accountsSvc.Stop(); err != nil {
		zapLogger.Error("Failed to stop account gateway", zap.Error(err))
	}

	zapLogger.Info("Server exited properly")
}
