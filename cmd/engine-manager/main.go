package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crisisline-engine/internal/common/config"
	"crisisline-engine/internal/common/database"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/common/observability"
	"crisisline-engine/internal/engine"
	"crisisline-engine/internal/engine/lifecycle"
	"crisisline-engine/internal/monitor"
	"crisisline-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting engine manager", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	obs := observability.New(cfg.App.Name, cfg.App.JaegerEndpoint)
	defer obs.Shutdown()

	pg, err := connectPostgres(cfg.Database.Postgres, log)
	if err != nil {
		log.Error("postgres unavailable, giving up", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer pg.Close()

	rdb, err := connectRedis(cfg.Database.Redis, log)
	if err != nil {
		log.Error("redis unavailable, giving up", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer rdb.Close()

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		log.Error("elasticsearch client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	var audit lifecycle.AuditSink = store.NewESAuditSink(es.Client, cfg.Database.Elasticsearch.AuditIndex, log)
	if err := es.Ping(); err != nil {
		log.Warn("audit cluster unreachable, audit trail disabled", map[string]interface{}{"error": err.Error()})
		audit = store.NoopAuditSink{}
	}

	volunteers := store.NewVolunteerStore(pg.DB, log)

	eng := engine.New(cfg, engine.Stores{
		Volunteers: volunteers,
		Progress:   store.NewTrainingStore(pg.DB, log),
		Wellness:   store.NewWellnessStore(rdb.Client, log),
		Audit:      audit,
	}, obs, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mon := monitor.New(monitor.Dependencies{
		Volunteers: volunteers,
		Sweeper:    eng.Burnout,
		Stats:      eng.Stats,
		Targets: []monitor.HealthTarget{
			{Name: "postgres", Check: pg.Ping},
			{Name: "redis", Check: rdb.Ping},
			{Name: "elasticsearch", Check: func(context.Context) error { return es.Ping() }},
		},
		Logger: log,
		Config: monitor.Config{
			WellnessSweepInterval: cfg.Monitor.WellnessSweepInterval,
			RollupInterval:        cfg.Monitor.RollupInterval,
			HealthCheckInterval:   cfg.Monitor.HealthCheckInterval,
		},
	})
	mon.Start(ctx)

	metricsServer := startMetricsServer(cfg.App.MetricsPort, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})

	cancel()
	mon.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("engine manager stopped", nil)
}

func connectPostgres(cfg config.PostgresConfig, log logger.Logger) (*database.PostgresClient, error) {
	var client *database.PostgresClient
	err := retryWithBackoff(5, 2*time.Second, log, "postgres", func() error {
		c, err := database.NewPostgres(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			c.Close()
			return err
		}
		client = c
		return nil
	})
	return client, err
}

func connectRedis(cfg config.RedisConfig, log logger.Logger) (*database.RedisClient, error) {
	var client *database.RedisClient
	err := retryWithBackoff(5, 2*time.Second, log, "redis", func() error {
		c, err := database.NewRedis(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			c.Close()
			return err
		}
		client = c
		return nil
	})
	return client, err
}

// retryWithBackoff retries fn with doubling delays. Infrastructure comes up
// in arbitrary order under docker-compose, so startup tolerates a few
// failures before giving up.
func retryWithBackoff(attempts int, initialDelay time.Duration, log logger.Logger, target string, fn func() error) error {
	delay := initialDelay
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn("connection attempt failed, retrying", map[string]interface{}{
			"target":  target,
			"attempt": i,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

func startMetricsServer(port int, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		log.Info("metrics server listening", map[string]interface{}{"port": port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	return server
}
