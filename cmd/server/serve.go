package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront-orders/internal/api"
	"storefront-orders/internal/auth"
	"storefront-orders/internal/broker"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/service"
	"storefront-orders/internal/util"
	"storefront-orders/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the vendor status worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront order service",
		zap.String("env", cfg.Server.Env),
		zap.String("database", db.Dialect()))

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	applied, err := db.Migrate(context.Background())
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("Applied migrations", zap.Strings("versions", applied))
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))

	var orderWriter, notificationWriter broker.EventWriter = broker.NopWriter{}, broker.NopWriter{}
	if cfg.Kafka.Enabled {
		orderWriter = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		notificationWriter = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications)
		logger.Info("Kafka producers initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		logger.Warn("Kafka disabled, domain events and login codes will not be delivered")
	}
	defer orderWriter.Close()
	defer notificationWriter.Close()

	events := broker.NewEventPublisher(orderWriter, notificationWriter)

	services := api.Services{
		Orders: service.NewOrderService(db, redisClient, events, service.OrderServiceConfig{
			Workers:        cfg.Business.OrderSubmitWorkers,
			IdempotencyTTL: time.Duration(cfg.Business.IdempotencyTTLSeconds) * time.Second,
		}),
		Status: service.NewStatusSyncService(db, events),
		Access: service.NewVenueAccessService(db),
		Login: service.NewLoginService(db, redisClient, events, service.LoginConfig{
			OTPTTL:         time.Duration(cfg.Auth.OTPTTLSeconds) * time.Second,
			OTPMaxAttempts: cfg.Auth.OTPMaxAttempts,
			SessionTTL:     time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute,
		}),
		Cart:    service.NewCartService(db),
		Catalog: service.NewCatalogService(db),
	}

	if cfg.Auth.APIKeyHash == "" || cfg.Auth.APIKeySalt == "" {
		logger.Warn("API_KEY_HASH or API_KEY_SALT not set, vendor API key auth is disabled")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services,
		auth.NewAPIKeyAuthenticator(cfg.Auth.APIKeyHash, cfg.Auth.APIKeySalt),
		auth.NewSessionAuthenticator(redisClient),
		api.Options{
			SessionTTL:    time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute,
			SecureCookies: cfg.Server.Env == "production",
			Readiness: map[string]api.ReadinessCheck{
				"database": db.Ping,
				"redis":    redisClient.Ping,
			},
		})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicVendorStatus, cfg.Kafka.ConsumerGroup)
		vendorWorker := worker.NewVendorStatusWorker(consumer, services.Status)
		g.Go(func() error {
			return vendorWorker.Start(gctx)
		})
		defer func() {
			if err := vendorWorker.Stop(); err != nil {
				logger.Warn("Error stopping vendor status worker", zap.Error(err))
			}
		}()
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	logger.Info("Server exited")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
