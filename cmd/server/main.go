package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dasmlab/codelf/pkg/codelf"
	"github.com/dasmlab/codelf/pkg/config"
	"github.com/dasmlab/codelf/pkg/server"
	"github.com/dasmlab/codelf/pkg/service"
)

var (
	// Server configuration flags
	configPath = flag.String("config", "", "Path to YAML config file")
	port       = flag.Int("port", 0, "gRPC server port (overrides config)")
	httpPort   = flag.Int("http-port", 0, "HTTP server port (overrides config)")

	// Cache configuration
	cacheType = flag.String("cache", "", "Cache storage: memory, lru or sqlite (overrides config)")
	cachePath = flag.String("cache-path", "", "SQLite cache file (overrides config)")

	// Logging configuration
	logLevel = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	applyFlags(cfg)

	// Set log level
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
		cfg.LogLevel = level.String()
	}
	logger.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	logger.WithFields(logrus.Fields{
		"grpc_port": cfg.Server.GRPCPort,
		"http_port": cfg.Server.HTTPPort,
		"cache":     cfg.Cache.Type,
		"log_level": level.String(),
	}).Info("Starting codelf server")

	client, err := codelf.New(cfg.ClientConfig(logger))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create codelf client")
	}
	if len(client.Translators()) == 0 {
		logger.Warn("No translator configured, Chinese queries will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create job queue and processor; jobs stop with the server
	jobQueue := service.NewJobQueue(logger)
	jobQueue.SetProcessor(service.NewJobProcessor(ctx, client, logger))

	grpcServer := server.NewGRPCServer(service.NewVariableService(client, jobQueue, logger), logger, cfg.Server.GRPCPort)
	httpServer := server.NewHTTPServer(client, jobQueue, logger, cfg.Server.HTTPPort)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(grpcServer.Start)
	g.Go(httpServer.Start)

	// Periodic cleanup of finished jobs
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				jobQueue.CleanupOldJobs(cfg.Server.JobMaxAge)
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		grpcServer.Stop(shutdownCtx)
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cerr := client.Close(); cerr != nil {
		logger.WithError(cerr).Warn("Failed to close cache storage")
	}
	if err != nil {
		logger.WithError(err).Fatal("Server error")
	}
	logger.Info("Server stopped")
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cfg *config.Config) {
	if *port != 0 {
		cfg.Server.GRPCPort = *port
	}
	if *httpPort != 0 {
		cfg.Server.HTTPPort = *httpPort
	}
	if *cacheType != "" {
		cfg.Cache.Type = *cacheType
	}
	if *cachePath != "" {
		cfg.Cache.Path = *cachePath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
}
