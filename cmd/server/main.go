//go:generate swag init -g cmd/server/main.go -d ../.. -o ../../docs

// @title                       Meal Villa Staff Portal API
// @version                     1.0
// @description                 Staff requests, approvals, directory and daily sales ledger.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mealvilla/staff-portal/internal/api"
	"github.com/mealvilla/staff-portal/internal/core/service"
	"github.com/mealvilla/staff-portal/internal/infrastructure/config"
	mongodb "github.com/mealvilla/staff-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/mealvilla/staff-portal/internal/infrastructure/db/redis"
	"github.com/mealvilla/staff-portal/internal/infrastructure/export"
	"github.com/mealvilla/staff-portal/internal/infrastructure/http/handlers"
	"github.com/mealvilla/staff-portal/internal/infrastructure/queue"
	"github.com/mealvilla/staff-portal/internal/infrastructure/telemetry"
	"github.com/mealvilla/staff-portal/pkg/logger"
)

const serviceName = "staff-portal"

func main() {
	if err := run(); err != nil {
		l := logger.Init(logger.Options{Service: serviceName})
		l.Fatal().Err(err).Msg("staff portal stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: serviceName,
	})

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("business timezone: %w", err)
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(sctx)
	}()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db, cfg.StoreTimeout)
	credRepo := mongodb.NewCredentialRepository(db, cfg.StoreTimeout)
	requestRepo := mongodb.NewRequestRepository(db, cfg.StoreTimeout)
	salesRepo := mongodb.NewSalesRepository(db, cfg.StoreTimeout)
	notificationRepo := mongodb.NewNotificationRepository(db, cfg.StoreTimeout)

	for name, ensure := range map[string]func(context.Context) error{
		"users":         userRepo.EnsureIndexes,
		"requests":      requestRepo.EnsureIndexes,
		"sales":         salesRepo.EnsureIndexes,
		"notifications": notificationRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	// --- Services ---
	notifications := service.NewNotificationService(notificationRepo, logger.Component("notifications"))
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, notifications, logger.Component("dispatcher"))
	// Workers outlive the signal context so Stop can drain the queues.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	provisioner := service.NewCredentialProvisioner(credRepo)
	directory := service.NewUserDirectoryService(userRepo, provisioner, cfg.StaffEmailDomain, logger.Component("directory"))
	ledger := service.NewRequestLedgerService(requestRepo, userRepo, dispatcher, logger.Component("requests"))
	workflow := service.NewApprovalWorkflowService(ledger, directory, dispatcher, logger.Component("approvals"))
	sales := service.NewSalesLedgerService(salesRepo, redisdb.NewSubmissionDedup(rdb, cfg.Redis.DedupTTL), loc, logger.Component("sales"))
	auth := service.NewAuthService(userRepo, credRepo, cfg.StaffEmailDomain, cfg.JWTSecret, cfg.TokenTTL)

	if cfg.Bootstrap.StaffID != "" {
		if err := directory.Bootstrap(ctx, cfg.Bootstrap.StaffID, cfg.Bootstrap.Name, cfg.Bootstrap.Password); err != nil {
			return fmt.Errorf("bootstrap developer account: %w", err)
		}
	}

	router := api.NewRouter(api.Deps{
		Log:        log,
		JWTSecret:  cfg.JWTSecret,
		Auth:       auth,
		Directory:  directory,
		Ledger:     ledger,
		Workflow:   workflow,
		Sales:      sales,
		Feed:       notifications,
		Exporter:   export.NewXLSXExporter(),
		ExportType: export.ContentType,
		HealthChecks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("tz", loc.String()).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	return nil
}
