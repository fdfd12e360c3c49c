package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sales_report/internal/api"
	"sales_report/internal/config"
	"sales_report/internal/publisher"
	"sales_report/internal/scheduler"
	"sales_report/internal/service"
	"sales_report/internal/source/roxiler"
	"sales_report/internal/storage/sqldb"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logger = setupLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqldb.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to database", zap.String("driver", cfg.Database.Driver))

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	saleStore := sqldb.NewSaleStore(db)
	datasetStateStore := sqldb.NewDatasetStateStore(db)
	txManager := sqldb.NewTransactionManager(db)

	source := roxiler.New(roxiler.Config{
		URL:            cfg.Source.URL,
		Timeout:        cfg.Source.Timeout,
		MaxAttempts:    cfg.Source.Retry.MaxAttempts,
		InitialBackoff: cfg.Source.Retry.InitialBackoff,
		MaxBackoff:     cfg.Source.Retry.MaxBackoff,
	}, logger)

	ingestService := service.NewIngestService(
		source,
		saleStore,
		datasetStateStore,
		txManager,
		pub,
		logger,
	)
	reportService := service.NewReportService(saleStore, txManager, logger)

	handler := api.NewHandler(ingestService, reportService, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	wg := &sync.WaitGroup{}
	if cfg.Refresh.Interval > 0 || cfg.Refresh.OnStartup {
		sched := scheduler.NewScheduler(ingestService, scheduler.Config{
			Interval:  cfg.Refresh.Interval,
			Timeout:   cfg.Refresh.Timeout,
			OnStartup: cfg.Refresh.OnStartup,
		}, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler error", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Info("starting sales report server",
			zap.String("addr", srv.Addr),
			zap.String("source", source.Name()),
			zap.Duration("refresh_interval", cfg.Refresh.Interval),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	wg.Wait()
	logger.Info("graceful shutdown complete")
}

func setupLogger(level string) *zap.Logger {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		logLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
