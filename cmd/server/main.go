package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/laghulabs/laghu/config"
	appmodel "github.com/laghulabs/laghu/internal/app/model"
	apprepository "github.com/laghulabs/laghu/internal/app/repository"
	appserver "github.com/laghulabs/laghu/internal/app/server"
	appservice "github.com/laghulabs/laghu/internal/app/service"
	"github.com/laghulabs/laghu/internal/infra/logger"
	infraNATS "github.com/laghulabs/laghu/internal/infra/nats"
	infraPostgres "github.com/laghulabs/laghu/internal/infra/postgres"
	infraPrometheus "github.com/laghulabs/laghu/internal/infra/prometheus"
	infraRedis "github.com/laghulabs/laghu/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("base_url", cfg.App.BaseURL),
		zap.String("listen_addr", cfg.App.ListenAddr),
		zap.String("click_recording", cfg.App.ClickRecording),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Link{}, &appmodel.Click{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	linkRepo := apprepository.NewLinkRepository(gormDB)
	clickRepo := apprepository.NewClickRepository(gormDB)

	slugFilter := appservice.NewSlugFilter()
	if err := slugFilter.Warm(ctx, linkRepo); err != nil {
		log.Fatal("Failed to warm slug filter", zap.Error(err))
	}

	linkCache := appservice.NewRedisLinkCache(redisClient, cfg.App.CacheTTL)

	// Click recording: direct store writes by default, JetStream pipeline
	// when configured.
	var clickRecorder appservice.ClickRecorder
	if cfg.App.ClickRecording == "queue" {
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()
		log.Info("Connected to NATS successfully")

		consumer := appservice.NewClickConsumer(js, log, clickRepo)
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start click consumer", zap.Error(err))
		}
		clickRecorder = appservice.NewClickPublisher(js)
	} else {
		clickRecorder = appservice.NewStoreClickRecorder(clickRepo)
	}

	linkService := appservice.NewLinkService(appservice.LinkServiceDeps{
		Logger:   log,
		Repo:     linkRepo,
		Filter:   slugFilter,
		Cache:    linkCache,
		Metadata: appservice.NewMetadataFetcher(),
		Policy: appservice.LinkPolicy{
			BaseURL:        cfg.App.BaseURL,
			SlugLength:     cfg.App.SlugLength,
			MaxSlugTries:   cfg.App.MaxSlugTries,
			CustomSlugCap:  cfg.App.CustomSlugCap,
			DefaultLinkTTL: cfg.App.DefaultLinkTTL,
		},
		Now: time.Now,
	})

	resolver := appservice.NewResolver(appservice.ResolverDeps{
		Logger:  log,
		Links:   linkRepo,
		Clicks:  clickRecorder,
		Cache:   linkCache,
		Timeout: cfg.App.ResolveTimeout,
		Now:     time.Now,
	})

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:      log,
		Postgres:    pool,
		Redis:       redisClient,
		Links:       linkRepo,
		Clicks:      clickRepo,
		LinkService: linkService,
		Resolver:    resolver,
		Secret:      []byte(cfg.App.Secret),
		BaseURL:     cfg.App.BaseURL,
		Now:         time.Now,
	})

	log.Info("Starting HTTP server", zap.String("addr", cfg.App.ListenAddr))
	if err := server.Listen(cfg.App.ListenAddr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
