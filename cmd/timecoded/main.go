package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/timecode/internal/api"
	"github.com/zsiec/timecode/internal/config"
	"github.com/zsiec/timecode/internal/health"
	"github.com/zsiec/timecode/internal/logger"
	"github.com/zsiec/timecode/internal/markers"
	"github.com/zsiec/timecode/internal/server"
	"github.com/zsiec/timecode/pkg/timecode"
	"github.com/zsiec/timecode/pkg/version"
)

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting timecode service")
	log.WithFields(logrus.Fields{
		"config_path":        configPath,
		"default_rate":       cfg.Timecode.DefaultRate,
		"default_drop_frame": cfg.Timecode.DefaultDropFrame,
	}).Debug("Configuration loaded")

	redisClient := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Redis.Addresses,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	log.Info("Connected to Redis successfully")

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, logger.NewLogrusAdapter(logger.WithComponent(log, "metrics")))
	}

	store := markers.NewRedisStore(redisClient, log, markers.RedisOptions{
		KeyPrefix:      cfg.Markers.KeyPrefix,
		TTL:            cfg.Markers.TTL,
		MaxPerTimeline: cfg.Markers.MaxPerTimeline,
	})
	defer func() {
		// Closes the shared Redis client.
		if err := store.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis connection")
		}
	}()

	srv := server.New(&cfg.Server, &cfg.RateLimit, log, redisClient)
	srv.RegisterHealthChecker(health.NewCheckerFunc("timecode", func(context.Context) error {
		_, err := timecode.New(0, cfg.Timecode.DefaultRate, cfg.Timecode.DefaultDropFrame)
		return err
	}))
	srv.RegisterRoutes(api.NewHandler(store, &cfg.Timecode, log).RegisterRoutes)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		log.WithError(err).Error("Server error")
		return
	}

	log.Info("Server shutdown complete")
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(cfg config.MetricsConfig, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Metrics server error")
	}
}
