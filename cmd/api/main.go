package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	apihttp "github.com/wms-platform/fulfillment-service/internal/api/http"
	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/config"
	"github.com/wms-platform/fulfillment-service/internal/infrastructure/kafka"
	"github.com/wms-platform/fulfillment-service/internal/infrastructure/labels"
	inframongo "github.com/wms-platform/fulfillment-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-service/pkg/events"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(&logging.Config{
		Level:       logging.LogLevel(cfg.Logging.Level),
		ServiceName: cfg.ServiceName,
		Environment: cfg.Logging.Environment,
		Version:     cfg.Logging.Version,
	})
	logger.SetDefault()

	logger.Info("Starting fulfillment service")

	m := metrics.New(&metrics.Config{
		ServiceName: cfg.ServiceName,
		Namespace:   "wms",
	})

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	mongoClient, err := mongodb.NewClient(ctx, &mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		MinPoolSize:    cfg.Mongo.MinPoolSize,
		ReplicaSet:     cfg.Mongo.ReplicaSet,
	})
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()
	logger.Info("Connected to MongoDB", "database", cfg.Mongo.Database)

	// Repositories
	batchRepo := inframongo.NewBatchRepository(mongoClient, m)
	chunkRepo := inframongo.NewChunkRepository(mongoClient, m)
	cartRepo := inframongo.NewCartRepository(mongoClient, m)
	cellRepo := inframongo.NewCellRepository(mongoClient, m)

	// Event publishing
	eventFactory := events.NewFactory(cfg.ServiceName)
	var publisher application.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := kafka.NewPublisher(&kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			RequiredAcks: cfg.Kafka.RequiredAcks,
		}, logger, m)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Error("Failed to close kafka publisher", "error", err)
			}
		}()
		publisher = kafkaPublisher
	}

	// Label service client
	labelClient := labels.NewClient(&labels.Config{
		BaseURL: cfg.Labels.BaseURL,
		Timeout: cfg.Labels.Timeout,
	}, logger, m)

	// Application services
	queueService := application.NewBatchQueueService(batchRepo, cellRepo, publisher, eventFactory, logger)
	stationService := application.NewStationService(batchRepo, chunkRepo, cartRepo, publisher, eventFactory, m, logger)
	coordinator := application.NewStationCoordinator(
		stationService, chunkRepo, batchRepo, labelClient, m, logger, rand.Float64)

	handlers := apihttp.NewHandlers(queueService, stationService, coordinator)

	// HTTP server
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(m.GinMiddleware())
	router.Use(requestLogger(logger))

	apihttp.SetupRoutes(router, handlers, m)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

// requestLogger returns gin middleware logging each request through the
// structured logger
func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.HTTPRequest(c.Request.Context(), c.Request.Method, path,
			c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
