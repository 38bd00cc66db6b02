package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mcache "github.com/radieske/prediction-market-poc/internal/market-api/cache"
	httpapi "github.com/radieske/prediction-market-poc/internal/market-api/http"
	"github.com/radieske/prediction-market-poc/internal/market-api/producer"
	"github.com/radieske/prediction-market-poc/internal/market-api/scheduler"
	"github.com/radieske/prediction-market-poc/internal/market-api/store"
	"github.com/radieske/prediction-market-poc/internal/market-api/ws"
	"github.com/radieske/prediction-market-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	"github.com/radieske/prediction-market-poc/internal/shared/db"
	"github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("market-api stopped with error", zap.Error(err))
	}
	log.Info("market-api stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	log.Info("starting service", zap.String("storage", cfg.StorageDriver))

	for _, reg := range []func(prometheus.Registerer) error{httpapi.RegisterMetrics, scheduler.RegisterMetrics} {
		if err := reg(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	// storage
	var storage store.Storage
	switch cfg.StorageDriver {
	case "memory":
		storage = store.NewMemory()
	case "postgres":
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresMaxOpenConns)
		if err != nil {
			return err
		}
		defer pg.Close()
		ps := store.NewPostgres(pg)
		if err := ps.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("postgres connected and migrated")
		storage = ps
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.SeedExperts {
		n, err := store.SeedExperts(ctx, storage)
		if err != nil {
			return err
		}
		log.Info("experts seeded", zap.Int("count", n))
	}

	hub := ws.NewHub(log, allowOrigin(cfg.CORSAllowedOrigins))
	opts := httpapi.Options{
		Publisher:   producer.Noop{},
		Broadcaster: ws.LocalRelay{Hub: hub},
		WSHandler:   hub.HandleWS,
		CORSOrigins: cfg.CORSAllowedOrigins,
	}

	// redis opcional: cache de stats + relay do feed entre instâncias
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		var err error
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		if err := ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub); err != nil {
			return err
		}
		opts.StatsCache = mcache.NewStatsCache(rdb, cfg.StatsCacheTTL)
		opts.Broadcaster = ws.RedisRelay{R: rdb, Channel: cfg.RedisPubSubChannel}
		log.Info("redis connected", zap.String("channel", cfg.RedisPubSubChannel))
	}

	// kafka opcional
	if cfg.KafkaBrokers != "" {
		bp := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
		ec := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventCreated)
		es := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventSettled)
		defer func() {
			for _, w := range []interface{ Close() error }{bp, ec, es} {
				_ = w.Close()
			}
		}()
		opts.Publisher = producer.NewKafkaPublisher(bp, ec, es)
		log.Info("kafka writers ready", zap.String("brokers", cfg.KafkaBrokers))
	}

	sweeper := scheduler.NewStatusSweeper(log, storage)
	if opts.StatsCache != nil {
		sc := opts.StatsCache
		sweeper.OnActivated = func(ctx context.Context, _ int) {
			if err := sc.Invalidate(ctx); err != nil {
				log.Warn("stats cache invalidate failed", zap.Error(err))
			}
		}
	}
	if err := sweeper.Start(ctx, cfg.StatusSweepCron); err != nil {
		return fmt.Errorf("status sweeper: %w", err)
	}
	defer sweeper.Stop()

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, func(ctx context.Context) error {
		if err := storage.Ping(ctx); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})

	api := httpapi.NewServer(log, storage, opts)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("market-api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("api shutdown", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}
	return nil
}

// allowOrigin aplica a mesma lista do CORS ao upgrade do websocket
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(origins) == 0 || slices.Contains(origins, "*") {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
