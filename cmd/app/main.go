package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"DetectionViewer/internal/config"
	"DetectionViewer/pkg/log"

	"golang.org/x/net/context"
)

func main() {
	validator := config.NewValidator()
	cfg, err := config.LoadConfig(validator)
	if err != nil {
		log.NewLogger().Fatalf("Error loading configuration: %v", err)
	}

	logger := log.NewLogger(log.WithSuppress(cfg.LogSuppress...))
	fiberApp := config.NewFiber(logger, cfg)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithConfig(cfg),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithMiddleware(),
		config.WithUtils(),
		config.WithDetector(nil),
		config.WithVisualizeService(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.WithField("detector", cfg.DetectorBaseURL).Info("Server started successfully")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.CheckDetector(ctx); err != nil {
			logger.WithField("error", err.Error()).Warn("Detection backend is not reachable yet")
		}
	}()

	<-sigChan
	logger.Info("Shutting down server...")
	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
