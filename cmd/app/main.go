package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	apiHttp "github.com/vibe-gaming/storefront-router/internal/api/http"
	"github.com/vibe-gaming/storefront-router/internal/cache"
	"github.com/vibe-gaming/storefront-router/internal/config"
	"github.com/vibe-gaming/storefront-router/internal/medusa"
	"github.com/vibe-gaming/storefront-router/internal/queue/asynqserver"
	queueClient "github.com/vibe-gaming/storefront-router/internal/queue/client"
	"github.com/vibe-gaming/storefront-router/internal/server"
	"github.com/vibe-gaming/storefront-router/internal/service"
	"github.com/vibe-gaming/storefront-router/internal/worker"
	"github.com/vibe-gaming/storefront-router/pkg/auth"
	"github.com/vibe-gaming/storefront-router/pkg/logger"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	// Dependencies
	appLogger := logger.SetupLogger(cfg.Env, cfg.LogLevel)
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("starting storefront router",
		zap.String("env", cfg.Env),
		zap.String("default_region", cfg.Routing.DefaultRegion),
		zap.Bool("backend_configured", cfg.Medusa.BackendURL != ""),
	)
	appLogger.Debug("debug messages are enabled")

	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		appLogger.Error("redis connect problem", zap.Error(err))
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("error when closing redis", zap.Error(err))
			}
		}()
		appLogger.Info("redis connection done")
	}

	medusaClient := medusa.NewClient(cfg.Medusa)

	// Services & Workers
	deps := service.Deps{
		Config:       cfg,
		RegionSource: medusaClient,
	}
	if redisClient != nil {
		deps.RegionStore = cache.NewRegionStore(redisClient)
	}
	services := service.NewServices(deps)
	workers := worker.NewWorkers(worker.Deps{Services: services})

	var tokenManager auth.TokenManager
	if cfg.Auth.SigningKey != "" {
		manager, err := auth.NewManager(cfg.Auth.SigningKey)
		if err != nil {
			appLogger.Error("auth manager creation err", zap.Error(err))
			return
		}
		tokenManager = manager
	} else {
		appLogger.Info("operator api disabled, REVALIDATE_SIGNING_KEY is empty")
	}

	// Queue
	if redisClient != nil {
		asynqClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
		defer asynqClient.Close()
		restore := queueClient.SetClient(asynqClient)
		defer restore()

		asynqSrv, mux := asynqserver.New(cfg, workers)
		if err := asynqSrv.Start(mux); err != nil {
			appLogger.Error("asynq server start failed", zap.Error(err))
			return
		}
		defer asynqSrv.Shutdown()

		scheduler, err := asynqserver.NewScheduler(cfg)
		if err != nil {
			appLogger.Error("asynq scheduler creation failed", zap.Error(err))
			return
		}
		if err := scheduler.Start(); err != nil {
			appLogger.Error("asynq scheduler start failed", zap.Error(err))
			return
		}
		defer scheduler.Shutdown()
		appLogger.Info("region warm queue started", zap.Duration("interval", cfg.Queue.WarmInterval))
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Medusa.Timeout)
		defer cancel()
		if err := workers.RegionWarmer.WarmRegions(ctx); err != nil {
			appLogger.Warn("initial region warm failed, regions load on first request", zap.Error(err))
		}
	}()

	// HTTP Server
	handlers := apiHttp.NewHandlers(services, medusaClient, tokenManager, cfg)
	router, err := handlers.Init(cfg)
	if err != nil {
		appLogger.Error("http handlers init failed", zap.Error(err))
		return
	}

	srv := server.NewServer(cfg, router)
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	appLogger.Info("server started", zap.String("port", cfg.HttpServer.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		appLogger.Error("failed to stop server", zap.Error(err))
	}

	appLogger.Info("app stopped")
}
