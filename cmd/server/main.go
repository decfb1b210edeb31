package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/config"
	"github.com/fekuna/omnipos-fulfillment-service/migrations"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/broker"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/cache"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/postgres"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/search"

	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/allocator"
	ffH "github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/handler"
	ffRepoPkg "github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/repository"
	ffUCPkg "github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/usecase"

	ledH "github.com/fekuna/omnipos-fulfillment-service/internal/ledger/handler"
	ledIndexerPkg "github.com/fekuna/omnipos-fulfillment-service/internal/ledger/indexer"
	ledRepoPkg "github.com/fekuna/omnipos-fulfillment-service/internal/ledger/repository"
	ledUCPkg "github.com/fekuna/omnipos-fulfillment-service/internal/ledger/usecase"

	ordH "github.com/fekuna/omnipos-fulfillment-service/internal/order/handler"
	ordListenerPkg "github.com/fekuna/omnipos-fulfillment-service/internal/order/listener"
	ordRepoPkg "github.com/fekuna/omnipos-fulfillment-service/internal/order/repository"
	ordUCPkg "github.com/fekuna/omnipos-fulfillment-service/internal/order/usecase"

	"github.com/fekuna/omnipos-fulfillment-service/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		LockTimeout:     cfg.Fulfillment.LockTimeout,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if err := postgres.Migrate(context.Background(), db, migrations.FS); err != nil {
		appLogger.Fatal("Could not apply migrations", zap.Error(err))
	}

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis (snapshot caching disabled)", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer",
		zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (movement indexing disabled)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Initialize Repositories
	ledRepo := ledRepoPkg.NewPGRepository(db)
	ordRepo := ordRepoPkg.NewPGRepository(db)
	ffRepo := ffRepoPkg.NewPGRepository(db)

	// 8. Initialize Indexer
	movementIndexer := ledIndexerPkg.NewMovementIndexer(esClient, cfg.Elastic.MovementIndex, appLogger)

	// 9. Initialize UseCases
	ledUC := ledUCPkg.NewLedgerUseCase(ledRepo, redisClient, movementIndexer, appLogger)
	ordUC := ordUCPkg.NewOrderUseCase(ordRepo, ledRepo, ffRepo, movementIndexer, appLogger)

	allocChain := allocator.NewChain(appLogger,
		allocator.NewProcBackend(db),
		allocator.NewTxBackend(db),
		allocator.NewCASBackend(db),
	)
	ffUC := ffUCPkg.NewFulfillmentUseCase(ffRepo, allocChain, ordUC, ffUCPkg.Config{
		StaleSessionAfter: cfg.Fulfillment.StaleSessionAfter,
		CASMaxRetries:     cfg.Fulfillment.CASMaxRetries,
	}, appLogger)

	// 10. Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderListener := ordListenerPkg.NewOrderListener(kafkaConsumer, ordUC, appLogger)
	go orderListener.Start(ctx)
	go movementIndexer.Start(ctx)

	// 11. Start HTTP server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	ws := server.NewWebServer(port, appLogger,
		ledH.NewLedgerHandler(ledUC, appLogger),
		ordH.NewOrderHandler(ordUC, appLogger),
		ffH.NewFulfillmentHandler(ffUC, appLogger),
	)

	go func() {
		if err := ws.Start(); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := ws.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	appLogger.Info("Server stopped")
}
