package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imagerisk/imagerisk/internal/application/usecase"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/internal/domain/service"
	"github.com/imagerisk/imagerisk/internal/infrastructure/config"
	"github.com/imagerisk/imagerisk/internal/infrastructure/detector"
	"github.com/imagerisk/imagerisk/internal/infrastructure/messaging"
	"github.com/imagerisk/imagerisk/internal/infrastructure/postgres"
	"github.com/imagerisk/imagerisk/internal/infrastructure/storage"
	"github.com/imagerisk/imagerisk/internal/infrastructure/websocket"
	grpcpresentation "github.com/imagerisk/imagerisk/internal/presentation/grpc"
	"github.com/imagerisk/imagerisk/internal/presentation/rest"
	"github.com/imagerisk/imagerisk/pkg/kafka"
	"github.com/imagerisk/imagerisk/pkg/observability"
	pgutil "github.com/imagerisk/imagerisk/pkg/postgres"
)

const serviceName = "imaged"

func main() {
	if err := run(); err != nil {
		slog.Error("imaged exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	logger.Info("starting imaged",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"environment", cfg.Environment,
	)

	// Initialize tracing.
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    !cfg.IsProduction(),
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Warn("tracer shutdown error", "error", err)
				}
			}()
		}
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	serviceMetrics, err := observability.NewServiceMetrics(meterProvider, serviceName)
	if err != nil {
		return fmt.Errorf("failed to create service metrics: %w", err)
	}

	// Database connection.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pgutil.NewPool(dbCtx, pgutil.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		Trace:    cfg.OTLPEndpoint != "",
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if cfg.RunMigrations {
		var version uint
		if cfg.MigrationsDir != "" {
			version, err = pgutil.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir)
		} else {
			version, err = pgutil.RunMigrationsFS(cfg.DatabaseURL, postgres.Migrations, postgres.MigrationsPath)
		}
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database migrations applied", "version", version)
	}

	// Wire infrastructure adapters.
	imageRepo := postgres.NewImageRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)

	fileStore, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	detectorClient, err := detector.NewClient(detector.Config{
		URL:     cfg.DetectorURL,
		APIKey:  cfg.DetectorAPIKey,
		Timeout: cfg.DetectorTimeout,
		CAFile:  cfg.DetectorCAFile,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create detector client: %w", err)
	}
	checkDetector(ctx, cfg, detectorClient, logger)

	hub := websocket.NewHub(cfg.CORSOrigins, logger)
	go hub.Run(ctx)

	publisher, closePublisher, err := newEventPublisher(cfg, hub, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Wire domain services.
	riskScorer := service.NewRiskScorer()

	// Wire use cases.
	uc := rest.UseCases{
		UploadImage:       usecase.NewUploadImage(fileStore, imageRepo, publisher, serviceMetrics, logger),
		ListImages:        usecase.NewListImages(imageRepo),
		GetImage:          usecase.NewGetImage(imageRepo),
		UpdateDetections:  usecase.NewUpdateDetections(imageRepo, publisher, logger),
		EvaluateRisk:      usecase.NewEvaluateRisk(imageRepo, publisher, riskScorer, serviceMetrics, logger),
		DetectObjects:     usecase.NewDetectObjects(detectorClient, settingsRepo, imageRepo, publisher, logger),
		GetSettings:       usecase.NewGetSettings(settingsRepo, imageRepo, logger),
		UpdateSettings:    usecase.NewUpdateSettings(settingsRepo, logger),
		GetDashboard:      usecase.NewGetDashboard(imageRepo, serviceMetrics),
		GetDetectorStatus: usecase.NewGetDetectorStatus(detectorClient),
		SetDetectorKey:    usecase.NewSetDetectorKey(detectorClient, cfg.Environment, logger),
	}

	// gRPC server.
	grpcHandler := grpcpresentation.NewRiskServiceHandler(uc.EvaluateRisk, uc.GetImage, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:     cfg.GRPCAddress(),
		TLSCertFile: cfg.GRPCTLSCertFile,
		TLSKeyFile:  cfg.GRPCTLSKeyFile,
		Reflection:  cfg.GRPCReflection,
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	router := rest.NewRouter(rest.RouterConfig{
		API:          rest.NewHandler(uc, logger),
		Health:       rest.NewHealthHandler(pool, logger),
		Metrics:      metricsHandler,
		Stream:       hub,
		UploadDir:    fileStore.Dir(),
		CORSOrigins:  cfg.CORSOrigins,
		RateLimitRPS: cfg.RateLimitRPS,
		Logger:       logger,
	})

	httpListener, err := listenWithFallback(ctx, cfg.HTTPPort, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", httpListener.Addr().String())
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("imaged started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", httpListener.Addr().String(),
		"upload_dir", fileStore.Dir(),
	)

	// Wait for shutdown signal.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server error", "error", serveErr)
	}

	// Graceful shutdown.
	logger.Info("shutting down imaged")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("imaged stopped")
	return serveErr
}

// newEventPublisher fans events out to Kafka (or the log when no broker is
// configured) and to dashboard websocket clients.
func newEventPublisher(cfg *config.Config, hub *websocket.Hub, logger *slog.Logger) (port.EventPublisher, func(), error) {
	var primary port.EventPublisher = messaging.NewLogPublisher(logger)
	closeFn := func() {}

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:       cfg.KafkaBrokers,
			ClientID:      serviceName,
			WriteTimeout:  10 * time.Second,
			SASLEnabled:   cfg.KafkaSASLMechanism != "",
			SASLMechanism: cfg.KafkaSASLMechanism,
			SASLUsername:  cfg.KafkaSASLUsername,
			SASLPassword:  cfg.KafkaSASLPassword,
			TLS:           cfg.KafkaTLS,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		primary = messaging.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
		closeFn = func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka producer close error", "error", err)
			}
		}
		logger.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("no kafka brokers configured, logging events instead")
	}

	return messaging.NewMultiPublisher(primary, messaging.NewHubPublisher(hub)), closeFn, nil
}

// checkDetector logs the detector configuration and warns when the remote
// model is unreachable. Startup continues either way.
func checkDetector(ctx context.Context, cfg *config.Config, client *detector.Client, logger *slog.Logger) {
	if !cfg.DetectorEnabled() {
		logger.Warn("DETECTOR_URL not set, /api/predict will report the detector as unavailable")
		return
	}

	key := client.APIKey()
	if key == "" {
		logger.Warn("detector API key not set", "url", cfg.DetectorURL)
	} else {
		logger.Info("detector configured", "url", cfg.DetectorURL, "key", observability.MaskSecret(key))
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.CheckHealth(checkCtx); err != nil {
		logger.Warn("detector health check failed", "url", cfg.DetectorURL, "error", err)
	}
}
