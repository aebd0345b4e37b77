package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pharmaledger/m/internal/api"
	"pharmaledger/m/internal/config"
	"pharmaledger/m/internal/database"
	"pharmaledger/m/internal/ledger"
	"pharmaledger/m/internal/migrations"
	"pharmaledger/m/internal/seed"
	"pharmaledger/m/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.Must(logger.New())
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	led := ledger.New(db, logger.Named(log, "ledger"),
		ledger.WithSupplierAutoCreate(cfg.SupplierAutoCreate))

	if cfg.SeedPath != "" {
		seed.LoadStock(led, cfg.SeedPath, logger.Named(log, "seed"))
	}

	handler := api.New(led, logger.Named(log, "api"))

	log.Info("pharmacy ledger starting", zap.String("port", cfg.HTTPPort))
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
