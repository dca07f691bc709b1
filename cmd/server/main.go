package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameSourceFinder/internal/infrastructure/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Parse flags
	host := flag.String("host", "", "Listen host (overrides HOST)")
	port := flag.String("port", "", "Listen port (overrides PORT)")
	engine := flag.String("engine", "", "Browser engine: playwright, rod or static (overrides BROWSER_ENGINE)")
	dev := flag.Bool("dev", false, "Development logging (overrides LOG_DEV)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *engine != "" {
		cfg.Browser.Engine = *engine
	}
	if *dev {
		cfg.Logging.Development = true
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully...", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP shutdown incomplete", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
			_ = srv.Close()
			os.Exit(1)
		}
	}

	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
