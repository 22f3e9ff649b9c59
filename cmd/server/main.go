package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jmcandrew/auction-backoffice/internal/application/service"
	"github.com/jmcandrew/auction-backoffice/internal/config"
	"github.com/jmcandrew/auction-backoffice/internal/infrastructure/persistence/repository"
	"github.com/jmcandrew/auction-backoffice/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/jmcandrew/auction-backoffice/internal/interfaces/http"
	"github.com/jmcandrew/auction-backoffice/internal/voucher"
	"github.com/jmcandrew/auction-backoffice/pkg/database"
	"github.com/jmcandrew/auction-backoffice/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting auction back-office service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	defaultTaxRate, err := cfg.Tax.Rate()
	if err != nil {
		logger.Fatal("Invalid default tax rate", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)

	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	refundRepo := repository.NewRefundRepository(db.DB, logger)
	reimbursementRepo := repository.NewReimbursementRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)

	kvLogger := utils.NewKVLogger(logger)

	refundService := service.NewRefundService(invoiceRepo, refundRepo, txManager, kvLogger)
	reimbursementService := service.NewReimbursementService(
		reimbursementRepo, historyRepo, txManager, defaultTaxRate, kvLogger)

	voucherGenerator := voucher.NewGenerator(cfg.Voucher.OutputDir, cfg.Voucher.HouseName, logger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, refundService, reimbursementService, voucherGenerator, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
