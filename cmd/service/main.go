package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"

	ledgerRepoPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgerUCPkg "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"

	reqListenerPkg "github.com/fekuna/omnipos-stock-service/internal/request/listener"
	reqNotifierPkg "github.com/fekuna/omnipos-stock-service/internal/request/notifier"
	reqRepoPkg "github.com/fekuna/omnipos-stock-service/internal/request/repository"
	reqUCPkg "github.com/fekuna/omnipos-stock-service/internal/request/usecase"

	monitorPkg "github.com/fekuna/omnipos-stock-service/internal/report/monitor"
	reportRepoPkg "github.com/fekuna/omnipos-stock-service/internal/report/repository"
	reportUCPkg "github.com/fekuna/omnipos-stock-service/internal/report/usecase"

	settingsRepoPkg "github.com/fekuna/omnipos-stock-service/internal/settings/repository"
	settingsUCPkg "github.com/fekuna/omnipos-stock-service/internal/settings/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
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
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.OrdersGroup,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.OrdersTopic))

	kafkaPublisher := broker.NewPublisher(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.NotifyTopic,
	})
	defer kafkaPublisher.Close()

	// 6. Initialize Repositories
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	reqRepo := reqRepoPkg.NewPGRepository(db, ledgerRepo)
	settingsRepo := settingsRepoPkg.NewPGRepository(db)
	reportRepo := reportRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	notifier := reqNotifierPkg.NewKafkaNotifier(kafkaPublisher)
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepo, redisClient, appLogger)
	reqUC := reqUCPkg.NewRequestUseCase(reqRepo, redisClient, notifier, appLogger)
	settingsUC := settingsUCPkg.NewSettingsUseCase(settingsRepo, ledgerUC, appLogger)
	reportUC := reportUCPkg.NewReportUseCase(reportRepo, settingsUC, appLogger)

	// 8. Start Listener + Monitor
	reqListener := reqListenerPkg.NewRequestListener(kafkaConsumer, reqUC, appLogger)
	lowStockMonitor := monitorPkg.NewLowStockMonitor(
		reportUC,
		cfg.Monitor.Profiles,
		time.Duration(cfg.Monitor.Interval)*time.Second,
		appLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reqListener.Start(ctx)
	go lowStockMonitor.Start(ctx)

	appLogger.Info("Stock service started")

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down service...")
	cancel()
	appLogger.Info("Service stopped")
}
