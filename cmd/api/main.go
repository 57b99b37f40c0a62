package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	bucketsStore "reporting-store/internal/buckets/adapters/store"
	"reporting-store/internal/config"
	queryHttp "reporting-store/internal/query/adapters/http/fiber"
	queryUsecase "reporting-store/internal/query/core/usecase"
	recordsHttp "reporting-store/internal/records/adapters/http/fiber"
	recordsUsecase "reporting-store/internal/records/core/usecase"
	storageHttp "reporting-store/internal/storage/adapters/http/fiber"
	"reporting-store/internal/storage/adapters/mongodb"
	"reporting-store/internal/storage/adapters/postgres"
	"reporting-store/internal/storage/adapters/sqlite"
	"reporting-store/internal/storage/core/ports"
	"reporting-store/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	_ "reporting-store/docs"
)

// @title Reporting Store API
// @version 1.0
// @description Write timestamped records into buckets and read grouped, period and raw views back.
// @BasePath /
func main() {
	// Config
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"), os.Getenv)
	if err != nil {
		panic(err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := openDatabase(ctx, cfg.Store)
	cancel()
	if err != nil {
		logger.Fatal("failed to open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer db.Close()

	logger.Info("store ready", zap.String("backend", cfg.Store.Backend))

	// Bucket registry
	bucketRepository := bucketsStore.NewBucketRepository(db.Collection(bucketsStore.CollectionName))
	for _, b := range cfg.Buckets {
		if err := bucketRepository.Save(context.Background(), b.Bucket()); err != nil {
			logger.Fatal("failed to seed bucket", zap.String("bucket", b.Name), zap.Error(err))
		}
	}

	// Usecases
	getRecordsUC := queryUsecase.NewGetRecordsUseCase(bucketRepository, db, logger)
	storeRecordsUC := recordsUsecase.NewStoreRecordsUseCase(bucketRepository, db, logger)

	// HTTP (Fiber) app + handlers
	metrics := telemetry.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(telemetry.RequestLogger(logger, metrics))

	statusHandler := storageHttp.NewStatusHandler(db, logger)
	app.Get("/_status", statusHandler.Status)
	app.Get("/_metrics", metrics.Handler())

	// Swagger
	app.Get("/docs/*", fiberSwagger.WrapHandler)

	// bucket endpoints
	queryHandler := queryHttp.NewQueryHandler(getRecordsUC)
	app.Get("/:bucket", queryHandler.GetRecords)

	recordHandler := recordsHttp.NewRecordHandler(storeRecordsUC)
	app.Post("/:bucket", recordHandler.StoreRecords)

	// Graceful shutdown
	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("fiber stopped", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", cfg.HTTPAddr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("fiber shutdown error", zap.Error(err))
	}

	logger.Info("server exiting")
}

func openDatabase(ctx context.Context, cfg config.StoreConfig) (ports.DatabasePort, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.Postgres.DSN, postgres.Options{
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
	case config.BackendMongoDB:
		return mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	default:
		return sqlite.Open(ctx, cfg.SQLite.Path)
	}
}
