package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/polyresearch/backend/internal/agent"
	"github.com/polyresearch/backend/internal/config"
	"github.com/polyresearch/backend/internal/gainers"
	"github.com/polyresearch/backend/internal/markets"
	"github.com/polyresearch/backend/internal/polymarket/dataapi"
	"github.com/polyresearch/backend/internal/polymarket/gammaapi"
	"github.com/polyresearch/backend/internal/server"
)

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting polyresearch service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"listen_addr":   cfg.ListenAddr,
		"max_lookback":  cfg.MaxLookbackHours,
		"agent_enabled": cfg.GeminiAPIKey != "",
	}).Info("Configuration loaded")

	// Initialize API clients
	dataClient := dataapi.NewClient(cfg)
	gammaClient := gammaapi.NewClient(cfg)

	log.Info("API clients initialized")

	// Initialize services
	gainersSvc := gainers.NewService(dataClient, dataClient, dataClient, cfg, log)
	marketsSvc := markets.NewService(gammaClient, cfg, log)
	extractor := agent.New(cfg, log)

	srv := server.New(cfg, log, gainersSvc, marketsSvc, extractor)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Graceful shutdown complete")
}
