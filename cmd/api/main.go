package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/andikurnia/fotoprint-backend/api/controllers"
	"github.com/andikurnia/fotoprint-backend/api/routes"
	"github.com/andikurnia/fotoprint-backend/internal/orders"
	webhooksvc "github.com/andikurnia/fotoprint-backend/internal/webhooks/midtrans"
	"github.com/andikurnia/fotoprint-backend/pkg/config"
	"github.com/andikurnia/fotoprint-backend/pkg/db"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
	"github.com/andikurnia/fotoprint-backend/pkg/metrics"
	"github.com/andikurnia/fotoprint-backend/pkg/midtrans"
	"github.com/andikurnia/fotoprint-backend/pkg/migrate"
	"github.com/andikurnia/fotoprint-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	snapClient, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create midtrans client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	orderMetrics := metrics.NewOrderMetrics(registry)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:          orders.NewRepository(dbClient.DB()),
		Snap:          snapClient,
		FotoshareHost: cfg.Fotoshare.AllowedHost,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	webhookService, err := webhooksvc.NewService(webhooksvc.ServiceParams{
		Orders:    ordersService,
		Guard:     webhooksvc.NewIdempotencyGuard(redisClient, 0, logg),
		ServerKey: cfg.Midtrans.ServerKey,
		Metrics:   orderMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config: cfg,
			Logger: logg,
			Probes: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
			Orders:         ordersService,
			Webhooks:       webhookService,
			OrderMetrics:   orderMetrics,
			MetricsGateway: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
